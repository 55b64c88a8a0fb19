package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ragchat/internal/models"
)

// LLMService is an OpenAI-compatible chat-completions client
type LLMService struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *log.Logger
}

// LLMConfig configures the chat-completions client
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// StreamEvent is one event from a streaming completion. Exactly one of Delta
// and Err is meaningful; Done marks the final event.
type StreamEvent struct {
	Delta string
	Done  bool
	Err   error
}

// NewLLMService creates a chat-completions client
func NewLLMService(cfg LLMConfig, logger *log.Logger) (*LLMService, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		// LLMs can be slow
		timeout = 120 * time.Second
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	return &LLMService{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

type completionRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	Stream      bool             `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Invoke sends messages and returns the assistant reply
func (s *LLMService) Invoke(ctx context.Context, messages []models.Message) (models.Message, error) {
	body, err := json.Marshal(completionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
		Stream:      false,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to create completion request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to reach chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Message{}, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, string(payload))
	}

	var out completionResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return models.Message{}, fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return models.Message{}, fmt.Errorf("chat endpoint returned no choices")
	}

	return models.NewMessage(models.RoleAssistant, out.Choices[0].Message.Content), nil
}

// Stream sends messages with stream=true and returns a channel of events.
// The channel is closed after the final event. Cancelling ctx aborts the
// request and closes the channel.
func (s *LLMService) Stream(ctx context.Context, messages []models.Message) (<-chan StreamEvent, error) {
	body, err := json.Marshal(completionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach chat endpoint: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, string(payload))
	}

	events := make(chan StreamEvent)
	go s.readStream(ctx, resp.Body, events)
	return events, nil
}

// readStream parses SSE lines from the response body into events
func (s *LLMService) readStream(ctx context.Context, body io.ReadCloser, events chan<- StreamEvent) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.emit(ctx, events, StreamEvent{Done: true})
			return
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			s.logger.Printf("Skipping malformed stream chunk: %v", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if !s.emit(ctx, events, StreamEvent{Delta: delta}) {
				return
			}
		}
		if chunk.Choices[0].FinishReason != "" {
			s.emit(ctx, events, StreamEvent{Done: true})
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.emit(ctx, events, StreamEvent{Err: fmt.Errorf("stream read failed: %w", err)})
		return
	}
	s.emit(ctx, events, StreamEvent{Done: true})
}

// emit sends an event unless the consumer is gone
func (s *LLMService) emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *LLMService) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}
