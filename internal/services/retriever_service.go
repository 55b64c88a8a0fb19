package services

import (
	"context"
	"fmt"
	"log"

	"ragchat/internal/models"
	"ragchat/internal/repositories"
)

// DefaultTopK is the retrieval depth used when callers do not override it
const DefaultTopK = 4

// RetrieverOptions controls a full index build
type RetrieverOptions struct {
	DocsDir        string
	CollectionName string
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	Store          StoreOptions
}

// DefaultRetrieverOptions returns the standard build options
func DefaultRetrieverOptions(docsDir, collectionName string) RetrieverOptions {
	return RetrieverOptions{
		DocsDir:        docsDir,
		CollectionName: collectionName,
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		TopK:           DefaultTopK,
		Store:          DefaultStoreOptions(collectionName),
	}
}

// Retriever answers similarity queries against one collection
type Retriever struct {
	collectionName string
	topK           int
	vectors        repositories.VectorRepository
	embedder       Embedder
}

// Retrieve embeds the query and returns the k most similar chunks. k <= 0
// falls back to the retriever's default depth.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]*repositories.SearchResult, error) {
	if k <= 0 {
		k = r.topK
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Err: fmt.Errorf("failed to embed query: %w", err)}
	}
	results, err := r.vectors.SearchChunks(ctx, r.collectionName, vector, k)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	return results, nil
}

// CollectionName returns the collection this retriever queries
func (r *Retriever) CollectionName() string { return r.collectionName }

// BuildResult is everything a full index build produces
type BuildResult struct {
	Retriever *Retriever
	Store     *StoreHandle
	Integrity models.IntegrityReport
	Check     models.IntegrityCheck
}

// RetrieverService builds retrievers from document directories
type RetrieverService struct {
	loader   *LoaderService
	store    *VectorStoreService
	vectors  repositories.VectorRepository
	embedder Embedder
	keywords *KeywordExtractor
	logger   *log.Logger
}

// NewRetrieverService creates a retriever builder. The keyword extractor is
// optional.
func NewRetrieverService(loader *LoaderService, store *VectorStoreService, vectors repositories.VectorRepository,
	embedder Embedder, keywords *KeywordExtractor, logger *log.Logger) *RetrieverService {
	return &RetrieverService{
		loader:   loader,
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		keywords: keywords,
		logger:   logger,
	}
}

// Build runs the whole pipeline: probe the embedder, load documents, split,
// sanitize, build the collection, validate it and wrap it as a retriever.
// The embedder probe runs first so credential problems surface before any
// documents are read.
func (s *RetrieverService) Build(ctx context.Context, opts RetrieverOptions) (*BuildResult, error) {
	if err := s.probeEmbedder(ctx); err != nil {
		return nil, err
	}

	splitter, err := NewTextSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, &ConfigurationError{Op: "build retriever", Err: err}
	}
	processor := NewProcessorService(splitter, s.keywords, s.logger)

	docs, err := s.loader.LoadDocuments(opts.DocsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	chunks := processor.SplitDocuments(docs)
	chunks = processor.SanitizeMetadata(chunks)
	integrity := processor.ValidateProcessingIntegrity(docs, chunks)

	handle, err := s.store.CreateStore(ctx, chunks, opts.Store)
	if err != nil {
		return nil, err
	}

	check := s.store.ValidateIntegrity(ctx, handle, handle.Report.InsertedCount)

	return &BuildResult{
		Retriever: s.retriever(opts.CollectionName, opts.TopK),
		Store:     handle,
		Integrity: integrity,
		Check:     check,
	}, nil
}

// Connect wraps an existing collection as a retriever without rebuilding it
func (s *RetrieverService) Connect(ctx context.Context, opts RetrieverOptions) (*Retriever, error) {
	if err := s.probeEmbedder(ctx); err != nil {
		return nil, err
	}
	if _, err := s.store.ConnectToExisting(ctx, opts.CollectionName); err != nil {
		return nil, err
	}
	return s.retriever(opts.CollectionName, opts.TopK), nil
}

// probeEmbedder embeds a short probe string to verify credentials and
// connectivity before any heavier work
func (s *RetrieverService) probeEmbedder(ctx context.Context) error {
	if _, err := s.embedder.EmbedQuery(ctx, "connectivity probe"); err != nil {
		return &ConfigurationError{Op: "embedder probe", Err: err}
	}
	return nil
}

func (s *RetrieverService) retriever(collectionName string, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		collectionName: collectionName,
		topK:           topK,
		vectors:        s.vectors,
		embedder:       s.embedder,
	}
}
