package repositories

import (
	"context"
	"errors"
	"fmt"

	"ragchat/internal/db"
)

// ChromaVectorRepository implements VectorRepository using ChromaDB
type ChromaVectorRepository struct {
	client *db.ChromaDBClient
}

// NewChromaVectorRepository creates a new ChromaDB-backed vector repository
func NewChromaVectorRepository(client *db.ChromaDBClient) VectorRepository {
	return &ChromaVectorRepository{
		client: client,
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, db.ErrCollectionNotFound) {
		return fmt.Errorf("%w: %v", ErrCollectionNotFound, err)
	}
	return err
}

// CreateCollection creates a new collection. Metadata values must be
// primitive; the caller is expected to have sanitized them.
func (r *ChromaVectorRepository) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) error {
	if _, err := r.client.CreateCollection(ctx, name, metadata); err != nil {
		return NewVectorRepositoryError("create_collection", name, err, "")
	}
	return nil
}

// DeleteCollection deletes a collection. A missing collection is reported
// via ErrCollectionNotFound; callers with reset semantics swallow it.
func (r *ChromaVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	if err := r.client.DeleteCollection(ctx, name); err != nil {
		if errors.Is(err, db.ErrCollectionNotFound) {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		return NewVectorRepositoryError("delete_collection", name, err, "")
	}
	return nil
}

// CollectionExists checks if a collection exists
func (r *ChromaVectorRepository) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := r.client.GetCollection(ctx, name)
	if err != nil {
		if errors.Is(err, db.ErrCollectionNotFound) {
			return false, nil
		}
		return false, NewVectorRepositoryError("collection_exists", name, err, "")
	}
	return true, nil
}

// ListCollections returns info for all collections
func (r *ChromaVectorRepository) ListCollections(ctx context.Context) ([]*CollectionInfo, error) {
	collections, err := r.client.ListCollections(ctx)
	if err != nil {
		return nil, NewVectorRepositoryError("list_collections", "", err, "")
	}

	infos := make([]*CollectionInfo, len(collections))
	for i, col := range collections {
		infos[i] = &CollectionInfo{
			ID:       col.ID,
			Name:     col.Name,
			Metadata: col.Metadata,
		}
	}
	return infos, nil
}

// GetCollectionInfo retrieves collection metadata plus its item count
func (r *ChromaVectorRepository) GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	collection, err := r.client.GetCollection(ctx, name)
	if err != nil {
		return nil, translateNotFound(err)
	}

	count, err := r.client.CountCollection(ctx, name)
	if err != nil {
		return nil, NewVectorRepositoryError("get_collection_info", name, err, "failed to count collection")
	}

	return &CollectionInfo{
		ID:         collection.ID,
		Name:       collection.Name,
		ChunkCount: count,
		Metadata:   collection.Metadata,
	}, nil
}

// Count returns the number of items stored in a collection
func (r *ChromaVectorRepository) Count(ctx context.Context, name string) (int, error) {
	count, err := r.client.CountCollection(ctx, name)
	if err != nil {
		return 0, translateNotFound(err)
	}
	return count, nil
}

// StoreChunks stores pre-embedded chunks in a collection
func (r *ChromaVectorRepository) StoreChunks(ctx context.Context, collectionName string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		documents[i] = chunk.Text
		embeddings[i] = chunk.Embedding
		metadatas[i] = chunk.Metadata
	}

	err := r.client.AddDocuments(ctx, collectionName, ids, documents, embeddings, metadatas)
	if err != nil {
		if errors.Is(err, db.ErrCollectionNotFound) {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionName)
		}
		return NewVectorRepositoryError("store_chunks", collectionName, err, fmt.Sprintf("failed to store %d chunks", len(chunks)))
	}

	return nil
}

// SearchChunks searches for the topK most similar chunks
func (r *ChromaVectorRepository) SearchChunks(ctx context.Context, collectionName string, queryEmbedding []float32, topK int) ([]*SearchResult, error) {
	results, err := r.client.Query(ctx, collectionName, [][]float32{queryEmbedding}, topK, nil)
	if err != nil {
		if errors.Is(err, db.ErrCollectionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionName)
		}
		return nil, NewVectorRepositoryError("search_chunks", collectionName, err, "query failed")
	}

	searchResults := make([]*SearchResult, 0)
	if len(results.IDs) > 0 {
		for i := 0; i < len(results.IDs[0]); i++ {
			metadata := map[string]interface{}{}
			if len(results.Metadatas) > 0 && len(results.Metadatas[0]) > i {
				metadata = results.Metadatas[0][i]
			}

			var text string
			if len(results.Documents) > 0 && len(results.Documents[0]) > i {
				text = results.Documents[0][i]
			}

			var distance float32
			if len(results.Distances) > 0 && len(results.Distances[0]) > i {
				distance = results.Distances[0][i]
			}

			searchResults = append(searchResults, &SearchResult{
				ChunkID:  results.IDs[0][i],
				Text:     text,
				Score:    1.0 - distance, // cosine distance -> similarity
				Distance: distance,
				Metadata: metadata,
			})
		}
	}

	return searchResults, nil
}

// Ping checks if ChromaDB is alive
func (r *ChromaVectorRepository) Ping(ctx context.Context) error {
	if err := r.client.Heartbeat(ctx); err != nil {
		return NewVectorRepositoryError("ping", "", err, "ChromaDB heartbeat failed")
	}
	return nil
}

// Close closes the ChromaDB client
func (r *ChromaVectorRepository) Close() error {
	r.client.Close()
	return nil
}
