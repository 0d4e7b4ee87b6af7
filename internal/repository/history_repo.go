package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
)

// HistoryStore keeps the conversation history of each session.
type HistoryStore interface {
	// Get returns the stored history and whether one exists.
	Get(ctx context.Context, sessionID string) (models.History, bool, error)
	Put(ctx context.Context, sessionID string, history models.History) error
	// Clear removes the history; clearing a missing history is not an error.
	Clear(ctx context.Context, sessionID string) error
}

// RedisHistoryRepo stores each history as a JSON value that expires with the
// session.
type RedisHistoryRepo struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisHistoryRepo(redisClient *redis.Client, ttl time.Duration) *RedisHistoryRepo {
	return &RedisHistoryRepo{redis: redisClient, ttl: ttl}
}

func historyKey(sessionID string) string {
	return "chat_history:" + sessionID
}

func (r *RedisHistoryRepo) Get(ctx context.Context, sessionID string) (models.History, bool, error) {
	data, err := r.redis.Get(ctx, historyKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read history: %w", err)
	}

	var history models.History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return history, true, nil
}

func (r *RedisHistoryRepo) Put(ctx context.Context, sessionID string, history models.History) error {
	if history == nil {
		history = models.History{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := r.redis.Set(ctx, historyKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func (r *RedisHistoryRepo) Clear(ctx context.Context, sessionID string) error {
	if err := r.redis.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}
