package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"ragchat/internal/repositories"
	"ragchat/internal/services"
)

// CollectionHandler handles vector collection management endpoints
type CollectionHandler struct {
	storeService *services.VectorStoreService
	vectors      repositories.VectorRepository
	logger       *log.Logger
}

// NewCollectionHandler creates a collection handler
func NewCollectionHandler(storeService *services.VectorStoreService, vectors repositories.VectorRepository, logger *log.Logger) *CollectionHandler {
	return &CollectionHandler{
		storeService: storeService,
		vectors:      vectors,
		logger:       logger,
	}
}

// CollectionsResponse lists the collections in the store
type CollectionsResponse struct {
	Collections []*repositories.CollectionInfo `json:"collections"`
	Total       int                            `json:"total"`
}

// ListCollections handles GET /collections
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.storeService.ListCollections(r.Context())
	if err != nil {
		h.logger.Printf("Failed to list collections: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CollectionsResponse{
		Collections: collections,
		Total:       len(collections),
	})
}

// GetCollectionInfo handles GET /collections/{name}/info
func (h *CollectionHandler) GetCollectionInfo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := h.vectors.GetCollectionInfo(r.Context(), name)
	if err != nil {
		h.logger.Printf("Failed to get collection %s: %v", name, err)
		if repositories.IsCollectionNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// DeleteCollection handles DELETE /collections/{name}. Deleting a collection
// that does not exist still succeeds.
func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.logger.Printf("Delete collection: %s", name)

	deleted, err := h.storeService.CleanCollection(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	message := "Collection deleted"
	if !deleted {
		message = "Collection did not exist"
	}
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
	})
}
