package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/models"
	"ragchat/internal/repositories"
)

// Batching defaults. The insertion batch bounds one vector store write; the
// embed batch bounds one embeddings request inside it.
const (
	DefaultBatchSize      = 128
	DefaultEmbedBatchSize = 32
)

// Embedder is the embedding capability the store factory and retriever need
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// StoreOptions controls a store build
type StoreOptions struct {
	CollectionName string
	BatchSize      int
	EmbedBatchSize int
	Reset          bool
	FilterEmpty    bool
}

// DefaultStoreOptions returns the standard build options for a collection
func DefaultStoreOptions(collectionName string) StoreOptions {
	return StoreOptions{
		CollectionName: collectionName,
		BatchSize:      DefaultBatchSize,
		EmbedBatchSize: DefaultEmbedBatchSize,
		Reset:          true,
		FilterEmpty:    true,
	}
}

// StoreHandle refers to a built or connected collection
type StoreHandle struct {
	CollectionName string
	Report         models.StoreReport
}

// VectorStoreService builds and manages vector store collections from
// processed chunks
type VectorStoreService struct {
	vectors  repositories.VectorRepository
	embedder Embedder
	logger   *log.Logger
}

// NewVectorStoreService creates a store service
func NewVectorStoreService(vectors repositories.VectorRepository, embedder Embedder, logger *log.Logger) *VectorStoreService {
	return &VectorStoreService{
		vectors:  vectors,
		embedder: embedder,
		logger:   logger,
	}
}

// CreateStore embeds chunks batch by batch and inserts them into the
// collection. Empty chunks are dropped before embedding, chunks whose
// embedding comes back empty are dropped after. The collection is created
// lazily by the first non-empty batch. A batch failure aborts the build;
// batches already inserted stay inserted.
func (s *VectorStoreService) CreateStore(ctx context.Context, chunks []models.Document, opts StoreOptions) (*StoreHandle, error) {
	if opts.CollectionName == "" {
		return nil, &ConfigurationError{Op: "create store", Err: fmt.Errorf("collection name is required")}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = DefaultEmbedBatchSize
	}

	report := models.StoreReport{
		CollectionName: opts.CollectionName,
		InputCount:     len(chunks),
	}

	if opts.FilterEmpty {
		kept := make([]models.Document, 0, len(chunks))
		for _, chunk := range chunks {
			if strings.TrimSpace(chunk.Content) == "" {
				report.FilteredCount++
				continue
			}
			kept = append(kept, chunk)
		}
		if report.FilteredCount > 0 {
			s.logger.Printf("Filtered %d empty chunks before embedding", report.FilteredCount)
		}
		chunks = kept
	}

	if opts.Reset {
		if _, err := s.CleanCollection(ctx, opts.CollectionName); err != nil {
			return nil, &IngestionError{Batch: 0, Collection: opts.CollectionName, Err: err}
		}
	}

	collectionReady := false
	for start := 0; start < len(chunks); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batchNum := start/opts.BatchSize + 1

		embedded, dead, err := s.embedBatch(ctx, chunks[start:end], opts.EmbedBatchSize)
		if err != nil {
			return nil, &IngestionError{Batch: batchNum, Collection: opts.CollectionName, Err: err}
		}
		report.FilteredCount += dead
		if len(embedded) == 0 {
			continue
		}

		if !collectionReady {
			if err := s.vectors.CreateCollection(ctx, opts.CollectionName, map[string]interface{}{
				"hnsw:space": "cosine",
				"created_at": time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				return nil, &IngestionError{Batch: batchNum, Collection: opts.CollectionName, Err: err}
			}
			collectionReady = true
		}

		if err := s.vectors.StoreChunks(ctx, opts.CollectionName, embedded); err != nil {
			return nil, &IngestionError{Batch: batchNum, Collection: opts.CollectionName, Err: err}
		}
		report.InsertedCount += len(embedded)
		report.Batches++
	}

	s.logger.Printf("Stored %d/%d chunks into collection %s in %d batches (%d filtered)",
		report.InsertedCount, report.InputCount, opts.CollectionName, report.Batches, report.FilteredCount)
	return &StoreHandle{CollectionName: opts.CollectionName, Report: report}, nil
}

// embedBatch embeds one insertion batch in sub-batches and drops chunks whose
// vector came back empty. Returns repository chunks ready to insert and the
// number of dropped chunks.
func (s *VectorStoreService) embedBatch(ctx context.Context, batch []models.Document, embedBatchSize int) ([]*repositories.Chunk, int, error) {
	out := make([]*repositories.Chunk, 0, len(batch))
	dead := 0

	for start := 0; start < len(batch); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		sub := batch[start:end]

		texts := make([]string, len(sub))
		for i, chunk := range sub {
			texts[i] = chunk.Content
		}

		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to embed %d chunks: %w", len(texts), err)
		}
		if len(vectors) != len(sub) {
			return nil, 0, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(sub))
		}

		for i, vec := range vectors {
			if len(vec) == 0 {
				dead++
				continue
			}
			out = append(out, &repositories.Chunk{
				ID:        uuid.New().String(),
				Text:      sub[i].Content,
				Embedding: vec,
				Metadata:  sub[i].Metadata,
			})
		}
	}

	if dead > 0 {
		s.logger.Printf("Dropped %d chunks with empty embeddings", dead)
	}
	return out, dead, nil
}

// ConnectToExisting returns a handle for a collection assumed to exist. No
// validation happens until the first query.
func (s *VectorStoreService) ConnectToExisting(ctx context.Context, collectionName string) (*StoreHandle, error) {
	if collectionName == "" {
		return nil, &ConfigurationError{Op: "connect to store", Err: fmt.Errorf("collection name is required")}
	}
	return &StoreHandle{
		CollectionName: collectionName,
		Report:         models.StoreReport{CollectionName: collectionName},
	}, nil
}

// CleanCollection deletes a collection. A collection that does not exist
// counts as successfully cleaned; the bool reports whether anything was
// actually deleted.
func (s *VectorStoreService) CleanCollection(ctx context.Context, name string) (bool, error) {
	err := s.vectors.DeleteCollection(ctx, name)
	if err != nil {
		if repositories.IsCollectionNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to clean collection %s: %w", name, err)
	}
	s.logger.Printf("Deleted existing collection %s", name)
	return true, nil
}

// ListCollections lists all collections in the store
func (s *VectorStoreService) ListCollections(ctx context.Context) ([]*repositories.CollectionInfo, error) {
	return s.vectors.ListCollections(ctx)
}

// ValidateIntegrity probes the collection with a real query and compares the
// reported count against the expected one. A mismatch is reported in the
// result, never returned as an error.
func (s *VectorStoreService) ValidateIntegrity(ctx context.Context, handle *StoreHandle, expectedCount int) models.IntegrityCheck {
	check := models.IntegrityCheck{
		CollectionName: handle.CollectionName,
		ExpectedCount:  expectedCount,
	}

	count, err := s.vectors.Count(ctx, handle.CollectionName)
	if err != nil {
		check.Detail = fmt.Sprintf("count failed: %v", err)
		return check
	}
	check.ReportedCount = count

	probe, err := s.embedder.EmbedQuery(ctx, "integrity probe")
	if err != nil {
		check.Detail = fmt.Sprintf("probe embedding failed: %v", err)
		return check
	}
	if _, err := s.vectors.SearchChunks(ctx, handle.CollectionName, probe, 1); err != nil {
		check.Detail = fmt.Sprintf("probe query failed: %v", err)
		return check
	}
	check.ProbeSucceeded = true
	check.Match = count == expectedCount
	if !check.Match {
		check.Detail = fmt.Sprintf("expected %d chunks, collection reports %d", expectedCount, count)
		s.logger.Printf("Integrity mismatch for %s: %s", handle.CollectionName, check.Detail)
	}
	return check
}
