package repositories

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"ragchat/internal/models"
)

const (
	threadKeyPrefix   = "thread:"
	threadMessagesKey = ":messages"
	threadLanguageKey = ":language"
)

// RedisCheckpointRepository persists thread state in Redis so conversation
// memory survives process restarts. Same interface as the in-memory variant.
type RedisCheckpointRepository struct {
	client *redis.Client
}

// NewRedisCheckpointRepository creates a Redis-backed checkpoint store
func NewRedisCheckpointRepository(client *redis.Client) *RedisCheckpointRepository {
	return &RedisCheckpointRepository{
		client: client,
	}
}

// GetThread loads the thread's message log and attributes
func (r *RedisCheckpointRepository) GetThread(ctx context.Context, threadID string) (*models.Thread, error) {
	msgKey := threadKeyPrefix + threadID + threadMessagesKey

	raw, err := r.client.LRange(ctx, msgKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	langKey := threadKeyPrefix + threadID + threadLanguageKey
	language, err := r.client.Get(ctx, langKey).Result()
	if err == redis.Nil {
		language = ""
	} else if err != nil {
		return nil, err
	}

	if len(raw) == 0 && language == "" {
		return nil, ErrThreadNotFound
	}

	thread := &models.Thread{
		ID:             threadID,
		Messages:       make([]models.Message, 0, len(raw)),
		TargetLanguage: language,
	}
	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, err
		}
		thread.Messages = append(thread.Messages, msg)
	}
	return thread, nil
}

// AppendMessages pushes messages onto the thread's log in order
func (r *RedisCheckpointRepository) AppendMessages(ctx context.Context, threadID string, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	msgKey := threadKeyPrefix + threadID + threadMessagesKey
	values := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	return r.client.RPush(ctx, msgKey, values...).Err()
}

// SetTargetLanguage marks the thread as a translation thread
func (r *RedisCheckpointRepository) SetTargetLanguage(ctx context.Context, threadID string, language string) error {
	langKey := threadKeyPrefix + threadID + threadLanguageKey
	return r.client.Set(ctx, langKey, language, 0).Err()
}
