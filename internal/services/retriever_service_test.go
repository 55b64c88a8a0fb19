package services

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ragchat/internal/repositories"
)

func setupTestRetrieverService(t *testing.T) (*RetrieverService, *MockVectorRepository, *MockEmbedder) {
	mockRepo := new(MockVectorRepository)
	mockEmbedder := new(MockEmbedder)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)

	loader := NewLoaderService(logger)
	store := NewVectorStoreService(mockRepo, mockEmbedder, logger)
	service := NewRetrieverService(loader, store, mockRepo, mockEmbedder, nil, logger)
	return service, mockRepo, mockEmbedder
}

func TestBuild_ProbeFailureFailsFast(t *testing.T) {
	service, mockRepo, mockEmbedder := setupTestRetrieverService(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).
		Return(nil, errors.New("bad credentials"))

	// DocsDir points nowhere; the probe must fail before loading is attempted
	opts := DefaultRetrieverOptions("/does/not/exist", "col")
	_, err := service.Build(context.Background(), opts)

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	mockRepo.AssertNotCalled(t, "DeleteCollection", mock.Anything, mock.Anything)
}

func TestBuild_InvalidChunkProfile(t *testing.T) {
	service, _, mockEmbedder := setupTestRetrieverService(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)

	opts := DefaultRetrieverOptions(t.TempDir(), "col")
	opts.ChunkSize = 100
	opts.ChunkOverlap = 100

	_, err := service.Build(context.Background(), opts)
	assert.True(t, IsConfigurationError(err))
}

func TestBuild_FullPipeline(t *testing.T) {
	service, mockRepo, mockEmbedder := setupTestRetrieverService(t)

	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "Some document content that will be indexed.")

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	mockEmbedder.On("EmbedDocuments", mock.Anything, mock.Anything).
		Return([][]float32{{0.1, 0.2}}, nil)
	mockRepo.On("DeleteCollection", mock.Anything, "col").Return(nil)
	mockRepo.On("CreateCollection", mock.Anything, "col", mock.Anything).Return(nil)
	mockRepo.On("StoreChunks", mock.Anything, "col", mock.Anything).Return(nil)
	mockRepo.On("Count", mock.Anything, "col").Return(1, nil)
	mockRepo.On("SearchChunks", mock.Anything, "col", mock.Anything, 1).
		Return([]*repositories.SearchResult{}, nil)

	result, err := service.Build(context.Background(), DefaultRetrieverOptions(dir, "col"))
	require.NoError(t, err)

	assert.NotNil(t, result.Retriever)
	assert.Equal(t, 1, result.Store.Report.InsertedCount)
	assert.Equal(t, 1, result.Integrity.OriginalDocuments)
	assert.True(t, result.Check.Match)
	mockRepo.AssertExpectations(t)
}

func TestConnect_SkipsIndexing(t *testing.T) {
	service, mockRepo, mockEmbedder := setupTestRetrieverService(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)

	retriever, err := service.Connect(context.Background(), DefaultRetrieverOptions("", "existing"))
	require.NoError(t, err)
	assert.Equal(t, "existing", retriever.CollectionName())
	mockRepo.AssertNotCalled(t, "CreateCollection", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "StoreChunks", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieve_DefaultDepth(t *testing.T) {
	service, mockRepo, mockEmbedder := setupTestRetrieverService(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, "probe or query").Return([]float32{0.1}, nil)
	mockRepo.On("SearchChunks", mock.Anything, "col", []float32{0.1}, DefaultTopK).
		Return([]*repositories.SearchResult{{ChunkID: "c1", Text: "hit"}}, nil)

	retriever := service.retriever("col", 0)
	results, err := retriever.Retrieve(context.Background(), "probe or query", 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].Text)
}

func TestRetrieve_FailureWrappedAsRetrievalError(t *testing.T) {
	service, mockRepo, mockEmbedder := setupTestRetrieverService(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	mockRepo.On("SearchChunks", mock.Anything, "col", mock.Anything, mock.Anything).
		Return(nil, errors.New("collection vanished"))

	retriever := service.retriever("col", 4)
	_, err := retriever.Retrieve(context.Background(), "query", 4)

	require.Error(t, err)
	var re *RetrievalError
	assert.ErrorAs(t, err, &re)
}
