// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultAttemptTTL = 10 * time.Minute

// AttemptCache keeps the latest attempt per (user, quiz) in Redis.
type AttemptCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewAttemptCache(client redis.Cmdable, ttl time.Duration) *AttemptCache {
	if ttl <= 0 {
		ttl = defaultAttemptTTL
	}
	return &AttemptCache{client: client, ttl: ttl}
}

func latestAttemptKey(userID, quizID int64) string {
	return fmt.Sprintf("attempt:latest:%d:%d", userID, quizID)
}

// Get returns nil without error on a cache miss.
func (c *AttemptCache) Get(ctx context.Context, userID, quizID int64) (*Attempt, error) {
	val, err := c.client.Get(ctx, latestAttemptKey(userID, quizID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var a Attempt
	if err := json.Unmarshal(val, &a); err != nil {
		return nil, fmt.Errorf("decode cached attempt: %w", err)
	}
	return &a, nil
}

func (c *AttemptCache) Set(ctx context.Context, a *Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	return c.client.Set(ctx, latestAttemptKey(a.UserID, a.QuizID), data, c.ttl).Err()
}

func (c *AttemptCache) Invalidate(ctx context.Context, userID, quizID int64) error {
	return c.client.Del(ctx, latestAttemptKey(userID, quizID)).Err()
}
