package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"ragchat/internal/models"
	"ragchat/internal/services"
)

// IndexHandler handles index build requests
type IndexHandler struct {
	retrieverService *services.RetrieverService
	chatService      *services.ChatService
	defaults         services.RetrieverOptions
	logger           *log.Logger
}

// NewIndexHandler creates an index handler. defaults fills in any request
// field the caller leaves empty.
func NewIndexHandler(retrieverService *services.RetrieverService, chatService *services.ChatService,
	defaults services.RetrieverOptions, logger *log.Logger) *IndexHandler {
	return &IndexHandler{
		retrieverService: retrieverService,
		chatService:      chatService,
		defaults:         defaults,
		logger:           logger,
	}
}

// BuildIndex handles POST /index/build. On success the chat service is
// switched to the freshly built retriever.
func (h *IndexHandler) BuildIndex(w http.ResponseWriter, r *http.Request) {
	var req models.BuildIndexRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Printf("Failed to decode build request: %v", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	opts := h.buildOptions(req)
	h.logger.Printf("Building index for %s into collection %s (chunk %d/%d)",
		opts.DocsDir, opts.CollectionName, opts.ChunkSize, opts.ChunkOverlap)

	result, err := h.retrieverService.Build(r.Context(), opts)
	if err != nil {
		h.logger.Printf("Index build failed: %v", err)
		if services.IsConfigurationError(err) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if batch, ok := services.IsIngestionError(err); ok {
			h.logger.Printf("Build aborted at batch %d", batch)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.chatService.SetRetriever(result.Retriever)

	writeJSON(w, http.StatusOK, models.BuildIndexResponse{
		Status:    "success",
		Store:     result.Store.Report,
		Integrity: result.Integrity,
		Check:     result.Check,
	})
}

// buildOptions merges the request with the configured defaults
func (h *IndexHandler) buildOptions(req models.BuildIndexRequest) services.RetrieverOptions {
	opts := h.defaults
	if req.Profile == "large" {
		opts.ChunkSize = services.LargeChunkSize
		opts.ChunkOverlap = services.LargeChunkOverlap
	}
	if req.DocsDir != "" {
		opts.DocsDir = req.DocsDir
	}
	if req.CollectionName != "" {
		opts.CollectionName = req.CollectionName
		opts.Store.CollectionName = req.CollectionName
	}
	if req.ChunkSize > 0 {
		opts.ChunkSize = req.ChunkSize
	}
	if req.ChunkOverlap > 0 {
		opts.ChunkOverlap = req.ChunkOverlap
	}
	if req.ResetCollection != nil {
		opts.Store.Reset = *req.ResetCollection
	}
	return opts
}
