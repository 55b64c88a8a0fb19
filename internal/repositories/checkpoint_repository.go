package repositories

import (
	"context"
	"errors"

	"ragchat/internal/models"
)

// ErrThreadNotFound is returned when a thread id has no checkpoint yet
var ErrThreadNotFound = errors.New("thread not found")

// CheckpointRepository persists per-thread conversation state between turns.
// Turns within one thread are externally serialized; implementations must be
// safe for concurrent use across different thread ids.
type CheckpointRepository interface {
	// GetThread returns the thread's accumulated state, or ErrThreadNotFound
	GetThread(ctx context.Context, threadID string) (*models.Thread, error)
	// AppendMessages adds messages to the thread's log, creating the thread
	// on first use
	AppendMessages(ctx context.Context, threadID string, messages ...models.Message) error
	// SetTargetLanguage marks the thread as a translation thread
	SetTargetLanguage(ctx context.Context, threadID string, language string) error
}

// IsThreadNotFound reports whether err means the thread has no state yet
func IsThreadNotFound(err error) bool {
	return errors.Is(err, ErrThreadNotFound)
}
