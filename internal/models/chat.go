package models

// ChatRequest represents an incoming chat turn. ThreadID is optional; when
// absent the server mints a fresh one and returns it in the response.
type ChatRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Message  string `json:"message"`
}

// ChatResponse represents the assistant's reply for one turn
type ChatResponse struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
	Status   string `json:"status"` // "success" or "degraded"
}

// TranslateRequest represents a translation-thread turn
type TranslateRequest struct {
	ThreadID       string `json:"thread_id,omitempty"`
	Message        string `json:"message"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// RAGChatRequest represents a chat turn answered with retrieved context
type RAGChatRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Message  string `json:"message"`
	TopK     int    `json:"top_k,omitempty"`
}

// RAGChatResponse includes the context chunks used for grounding
type RAGChatResponse struct {
	ThreadID string            `json:"thread_id"`
	Message  string            `json:"message"`
	Status   string            `json:"status"`
	Context  []RAGContextChunk `json:"context,omitempty"`
	Query    string            `json:"query,omitempty"`
}

// RAGContextChunk represents a document chunk used as grounding context
type RAGContextChunk struct {
	Text     string                 `json:"text"`
	Source   string                 `json:"source,omitempty"`
	Score    float32                `json:"score,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// BuildIndexRequest triggers a full reindex of a document directory. Profile
// "large" selects the wide chunking window unless explicit sizes are given.
type BuildIndexRequest struct {
	DocsDir         string `json:"docs_dir,omitempty"`
	CollectionName  string `json:"collection_name,omitempty"`
	Profile         string `json:"profile,omitempty"`
	ChunkSize       int    `json:"chunk_size,omitempty"`
	ChunkOverlap    int    `json:"chunk_overlap,omitempty"`
	ResetCollection *bool  `json:"reset_collection,omitempty"`
}

// BuildIndexResponse reports the outcome of a reindex
type BuildIndexResponse struct {
	Status    string          `json:"status"`
	Store     StoreReport     `json:"store"`
	Integrity IntegrityReport `json:"integrity"`
	Check     IntegrityCheck  `json:"check"`
	Message   string          `json:"message,omitempty"`
}
