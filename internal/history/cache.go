package history

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	leaderboardKey  = "geoquizz:leaderboard"
	leaderboardTTL  = 30 * time.Second
	leaderboardSize = 100
)

// CachedStore fronts another Store with a redis-cached leaderboard. The top
// leaderboardSize rows are cached as one JSON blob and sliced per request;
// any append drops the cache. Redis failures fall through to the inner store.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
}

func NewCachedStore(inner Store, rdb *redis.Client) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb}
}

func (c *CachedStore) Append(ctx context.Context, rec Record) error {
	if err := c.inner.Append(ctx, rec); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, leaderboardKey).Err(); err != nil {
		log.Printf("[CachedStore.Append] invalidate leaderboard: %v", err)
	}
	return nil
}

func (c *CachedStore) Top(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > leaderboardSize {
		limit = leaderboardSize
	}

	if raw, err := c.rdb.Get(ctx, leaderboardKey).Bytes(); err == nil {
		var cached []Record
		if err := json.Unmarshal(raw, &cached); err == nil {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
	} else if err != redis.Nil {
		log.Printf("[CachedStore.Top] redis get: %v", err)
	}

	full, err := c.inner.Top(ctx, leaderboardSize)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(full); err == nil {
		if err := c.rdb.Set(ctx, leaderboardKey, raw, leaderboardTTL).Err(); err != nil {
			log.Printf("[CachedStore.Top] redis set: %v", err)
		}
	}
	if len(full) > limit {
		full = full[:limit]
	}
	return full, nil
}
