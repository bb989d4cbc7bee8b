// Package verifycache memoises proof verification in Redis. Logged records
// never change, so a hit is always valid; only misses reach the audit log.
package verifycache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"aidledger/internal/auditlog"
)

const keyPrefix = "aidledger:proof:"

// Cache is an auditlog.Verifier that reads through Redis.
type Cache struct {
	next   auditlog.Verifier
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps next. A Redis failure degrades to calling next directly.
func New(next auditlog.Verifier, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cache) Verify(ctx context.Context, proof string) (*auditlog.Record, error) {
	key := keyPrefix + proof

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec auditlog.Record
		if err := json.Unmarshal(raw, &rec); err == nil {
			return &rec, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cached proof", "proof", proof)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "verify cache read failed", "proof", proof, "error", err)
	}

	rec, err := c.next.Verify(ctx, proof)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(rec); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "verify cache write failed", "proof", proof, "error", err)
		}
	}
	return rec, nil
}
