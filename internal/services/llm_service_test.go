package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/models"
)

func newTestLLMService(t *testing.T, handler http.HandlerFunc) *LLMService {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := NewLLMService(LLMConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, log.New(os.Stdout, "[TEST] ", log.LstdFlags))
	require.NoError(t, err)
	return service
}

func TestInvoke_ReturnsAssistantMessage(t *testing.T) {
	service := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "the answer"}},
			},
		})
	})

	reply, err := service.Invoke(context.Background(), []models.Message{
		models.NewMessage(models.RoleSystem, "be helpful"),
		models.NewMessage(models.RoleUser, "a question"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "the answer", reply.Content.AsText())
}

func TestInvoke_NoChoicesIsError(t *testing.T) {
	service := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := service.Invoke(context.Background(), []models.Message{
		models.NewMessage(models.RoleUser, "q"),
	})
	assert.Error(t, err)
}

func TestInvoke_ServerErrorPropagates(t *testing.T) {
	service := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := service.Invoke(context.Background(), []models.Message{
		models.NewMessage(models.RoleUser, "q"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestStream_ConcatenatesDeltas(t *testing.T) {
	service := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{"Hel", "lo ", "world"}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	events, err := service.Stream(context.Background(), []models.Message{
		models.NewMessage(models.RoleUser, "q"),
	})
	require.NoError(t, err)

	var sb strings.Builder
	var done bool
	for ev := range events {
		require.NoError(t, ev.Err)
		if ev.Done {
			done = true
			continue
		}
		sb.WriteString(ev.Delta)
	}
	assert.True(t, done)
	assert.Equal(t, "Hello world", sb.String())
}

func TestStream_FinishReasonEndsStream(t *testing.T) {
	service := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
	})

	events, err := service.Stream(context.Background(), []models.Message{
		models.NewMessage(models.RoleUser, "q"),
	})
	require.NoError(t, err)

	var deltas []string
	for ev := range events {
		if ev.Delta != "" {
			deltas = append(deltas, ev.Delta)
		}
	}
	assert.Equal(t, []string{"hi"}, deltas)
}

func TestStream_MalformedChunksSkipped(t *testing.T) {
	service := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: not json at all\n\n")
		fmt.Fprint(w, ": comment line\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	events, err := service.Stream(context.Background(), []models.Message{
		models.NewMessage(models.RoleUser, "q"),
	})
	require.NoError(t, err)

	var sb strings.Builder
	for ev := range events {
		sb.WriteString(ev.Delta)
	}
	assert.Equal(t, "ok", sb.String())
}

func TestStream_ErrorStatusFailsFast(t *testing.T) {
	service := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := service.Stream(context.Background(), []models.Message{
		models.NewMessage(models.RoleUser, "q"),
	})
	assert.Error(t, err)
}
