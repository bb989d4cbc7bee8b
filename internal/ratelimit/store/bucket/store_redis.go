package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aidledger/internal/ratelimit/models"
)

const redisKeyPrefix = "aidledger:ratelimit:"

// RedisBucketStore is a fixed window counter shared by every instance.
type RedisBucketStore struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisBucketStore(rdb redis.Cmdable) *RedisBucketStore {
	return &RedisBucketStore{rdb: rdb, now: time.Now}
}

// Allow increments the counter for the current window of key.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	windowStart := now.Truncate(window)
	resetAt := windowStart.Add(window)
	redisKey := fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireAt(ctx, redisKey, resetAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	if count > limit {
		return &models.RateLimitResult{
			Allowed:    false,
			Limit:      limit,
			ResetAt:    resetAt,
			RetryAfter: models.RetryAfterSeconds(now, resetAt),
		}, nil
	}
	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}
