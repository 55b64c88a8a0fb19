package repositories

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is the interface-level "no such collection" error.
// Implementations translate their backend's not-found signal into it.
var ErrCollectionNotFound = errors.New("collection not found")

// VectorRepository defines the interface for vector database operations
// This abstracts ChromaDB and allows for easy testing and implementation swapping
type VectorRepository interface {
	// Collection management
	CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) error
	DeleteCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	ListCollections(ctx context.Context) ([]*CollectionInfo, error)
	GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)
	Count(ctx context.Context, name string) (int, error)

	// Chunk operations
	StoreChunks(ctx context.Context, collectionName string, chunks []*Chunk) error
	SearchChunks(ctx context.Context, collectionName string, queryEmbedding []float32, topK int) ([]*SearchResult, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// CollectionInfo represents metadata about a collection
type CollectionInfo struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	ChunkCount int                    `json:"chunk_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Chunk represents a text chunk with embedding and metadata, ready for storage
type Chunk struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Embedding []float32              `json:"embedding"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult represents a single similarity search hit
type SearchResult struct {
	ChunkID  string                 `json:"chunk_id"`
	Text     string                 `json:"text"`
	Score    float32                `json:"score"` // 1 - distance for cosine; higher is better
	Distance float32                `json:"distance"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// VectorRepositoryError wraps a backend error with operation context
type VectorRepositoryError struct {
	Operation  string
	Collection string
	Err        error
	Message    string
}

func (e *VectorRepositoryError) Error() string {
	msg := e.Operation
	if e.Collection != "" {
		msg += " [" + e.Collection + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VectorRepositoryError) Unwrap() error {
	return e.Err
}

// NewVectorRepositoryError creates a new vector repository error
func NewVectorRepositoryError(operation, collection string, err error, message string) *VectorRepositoryError {
	return &VectorRepositoryError{
		Operation:  operation,
		Collection: collection,
		Err:        err,
		Message:    message,
	}
}

// IsCollectionNotFound reports whether err means the collection does not exist
func IsCollectionNotFound(err error) bool {
	return errors.Is(err, ErrCollectionNotFound)
}
