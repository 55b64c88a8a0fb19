package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"ragchat/internal/models"
	"ragchat/internal/services"
)

// ChatHandler handles conversational endpoints
type ChatHandler struct {
	chatService *services.ChatService
	logger      *log.Logger
}

// NewChatHandler creates a chat handler
func NewChatHandler(chatService *services.ChatService, logger *log.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat handles POST /chat. A missing thread_id starts a new thread; the
// minted id comes back in the response.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode chat request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	result, err := h.chatService.Chat(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		ThreadID: result.ThreadID,
		Message:  result.Reply.Content.AsText(),
		Status:   turnStatus(result),
	})
}

// RAGChat handles POST /chat/rag. Retrieval and generation failures come back
// as a degraded assistant message, not a 5xx.
func (h *ChatHandler) RAGChat(w http.ResponseWriter, r *http.Request) {
	var req models.RAGChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode rag chat request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	result, err := h.chatService.RAGChat(r.Context(), req.ThreadID, req.Message, req.TopK)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.RAGChatResponse{
		ThreadID: result.ThreadID,
		Message:  result.Reply.Content.AsText(),
		Status:   turnStatus(result),
		Query:    req.Message,
		Context:  result.Context,
	})
}

// Translate handles POST /chat/translate. It pins the thread to a target
// language; subsequent plain-chat turns on the thread keep translating.
func (h *ChatHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode translate request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		writeError(w, http.StatusBadRequest, "Target language is required")
		return
	}

	result, err := h.chatService.Translate(r.Context(), req.ThreadID, req.Message, req.TargetLanguage)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		ThreadID: result.ThreadID,
		Message:  result.Reply.Content.AsText(),
		Status:   turnStatus(result),
	})
}

func (h *ChatHandler) respondError(w http.ResponseWriter, err error) {
	h.logger.Printf("Chat request failed: %v", err)
	if services.IsConfigurationError(err) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func turnStatus(result *services.TurnResult) string {
	if result.Degraded {
		return "degraded"
	}
	return "success"
}
