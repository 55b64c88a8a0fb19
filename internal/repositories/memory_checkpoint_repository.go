package repositories

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"ragchat/internal/models"
)

// MemoryCheckpointRepository keeps thread state in process memory. Entries
// never expire; memory lives as long as the process, which is the reference
// behavior for the demo.
type MemoryCheckpointRepository struct {
	cache *gocache.Cache
	mu    sync.Mutex
}

// NewMemoryCheckpointRepository creates an in-memory checkpoint store
func NewMemoryCheckpointRepository() *MemoryCheckpointRepository {
	return &MemoryCheckpointRepository{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// GetThread returns a copy of the thread state so callers can't mutate the
// stored log without going through AppendMessages
func (r *MemoryCheckpointRepository) GetThread(ctx context.Context, threadID string) (*models.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(threadID)
	if !found {
		return nil, ErrThreadNotFound
	}
	stored := x.(*models.Thread)

	out := &models.Thread{
		ID:             stored.ID,
		Messages:       make([]models.Message, len(stored.Messages)),
		TargetLanguage: stored.TargetLanguage,
	}
	copy(out.Messages, stored.Messages)
	return out, nil
}

// AppendMessages appends to the thread's log, creating the thread on first use
func (r *MemoryCheckpointRepository) AppendMessages(ctx context.Context, threadID string, messages ...models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	thread := r.getOrCreate(threadID)
	thread.Messages = append(thread.Messages, messages...)
	r.cache.Set(threadID, thread, gocache.NoExpiration)
	return nil
}

// SetTargetLanguage marks the thread as a translation thread
func (r *MemoryCheckpointRepository) SetTargetLanguage(ctx context.Context, threadID string, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	thread := r.getOrCreate(threadID)
	thread.TargetLanguage = language
	r.cache.Set(threadID, thread, gocache.NoExpiration)
	return nil
}

func (r *MemoryCheckpointRepository) getOrCreate(threadID string) *models.Thread {
	if x, found := r.cache.Get(threadID); found {
		return x.(*models.Thread)
	}
	return &models.Thread{ID: threadID}
}
