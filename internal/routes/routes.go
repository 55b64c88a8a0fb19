package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"ragchat/internal/handlers"
)

// Handlers bundles everything the router needs
type Handlers struct {
	Health     http.HandlerFunc
	Chat       *handlers.ChatHandler
	Index      *handlers.IndexHandler
	Collection *handlers.CollectionHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	router.HandleFunc("/chat", h.Chat.Chat).Methods(http.MethodPost)
	router.HandleFunc("/chat/rag", h.Chat.RAGChat).Methods(http.MethodPost)
	router.HandleFunc("/chat/translate", h.Chat.Translate).Methods(http.MethodPost)

	router.HandleFunc("/index/build", h.Index.BuildIndex).Methods(http.MethodPost)

	router.HandleFunc("/collections", h.Collection.ListCollections).Methods(http.MethodGet)
	router.HandleFunc("/collections/{name}", h.Collection.DeleteCollection).Methods(http.MethodDelete)
	router.HandleFunc("/collections/{name}/info", h.Collection.GetCollectionInfo).Methods(http.MethodGet)
}
