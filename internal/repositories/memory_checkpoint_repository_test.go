package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/models"
)

func TestMemoryCheckpoint_UnknownThread(t *testing.T) {
	repo := NewMemoryCheckpointRepository()

	_, err := repo.GetThread(context.Background(), "nope")
	assert.True(t, IsThreadNotFound(err))
}

func TestMemoryCheckpoint_AppendAndGet(t *testing.T) {
	repo := NewMemoryCheckpointRepository()
	ctx := context.Background()

	require.NoError(t, repo.AppendMessages(ctx, "t1",
		models.NewMessage(models.RoleUser, "hello"),
		models.NewMessage(models.RoleAssistant, "hi"),
	))
	require.NoError(t, repo.AppendMessages(ctx, "t1",
		models.NewMessage(models.RoleUser, "more"),
	))

	thread, err := repo.GetThread(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "hello", thread.Messages[0].Content.AsText())
	assert.Equal(t, "more", thread.Messages[2].Content.AsText())
}

func TestMemoryCheckpoint_ThreadIsolation(t *testing.T) {
	repo := NewMemoryCheckpointRepository()
	ctx := context.Background()

	require.NoError(t, repo.AppendMessages(ctx, "a", models.NewMessage(models.RoleUser, "for a")))
	require.NoError(t, repo.AppendMessages(ctx, "b", models.NewMessage(models.RoleUser, "for b")))

	a, err := repo.GetThread(ctx, "a")
	require.NoError(t, err)
	require.Len(t, a.Messages, 1)
	assert.Equal(t, "for a", a.Messages[0].Content.AsText())
}

func TestMemoryCheckpoint_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryCheckpointRepository()
	ctx := context.Background()

	require.NoError(t, repo.AppendMessages(ctx, "t1", models.NewMessage(models.RoleUser, "original")))

	thread, err := repo.GetThread(ctx, "t1")
	require.NoError(t, err)
	thread.Messages[0] = models.NewMessage(models.RoleUser, "mutated")

	fresh, err := repo.GetThread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Messages[0].Content.AsText())
}

func TestMemoryCheckpoint_TargetLanguage(t *testing.T) {
	repo := NewMemoryCheckpointRepository()
	ctx := context.Background()

	// setting a language creates the thread
	require.NoError(t, repo.SetTargetLanguage(ctx, "t1", "German"))

	thread, err := repo.GetThread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "German", thread.TargetLanguage)
	assert.Empty(t, thread.Messages)

	// messages and language coexist
	require.NoError(t, repo.AppendMessages(ctx, "t1", models.NewMessage(models.RoleUser, "hallo")))
	thread, err = repo.GetThread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "German", thread.TargetLanguage)
	assert.Len(t, thread.Messages, 1)
}

func TestMemoryCheckpoint_ConcurrentThreads(t *testing.T) {
	repo := NewMemoryCheckpointRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("thread-%d", n)
			for j := 0; j < 10; j++ {
				_ = repo.AppendMessages(ctx, id, models.NewMessage(models.RoleUser, "msg"))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		thread, err := repo.GetThread(ctx, fmt.Sprintf("thread-%d", i))
		require.NoError(t, err)
		assert.Len(t, thread.Messages, 10)
	}
}
