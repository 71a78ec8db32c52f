// Package cache keeps rendered rankings in Redis so repeated full-text
// downloads do not re-resolve every shift against the line store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultTTL is used when a cache is created with a non-positive TTL.
const DefaultTTL = time.Hour

// pushBatch bounds the number of lines sent in one RPUSH.
const pushBatch = 1000

// RenderedCache stores the rendered output lines of one build of an index.
// A build is identified by buildID, so a rebuilt index never sees stale lines.
type RenderedCache interface {
	Store(ctx context.Context, indexName, buildID string, lines []string) error
	Lines(ctx context.Context, indexName, buildID string, start, stop int64) ([]string, bool, error)
	Invalidate(ctx context.Context, indexName string) error
}

type redisRankingCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisRankingCache wraps an existing client.
func NewRedisRankingCache(rdb redis.UniversalClient, ttl time.Duration) RenderedCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisRankingCache{rdb: rdb, ttl: ttl}
}

// Connect creates a client for addr and checks that the server answers.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (RenderedCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewRedisRankingCache(rdb, ttl), nil
}

func rankingKey(indexName, buildID string) string {
	return "kwic:ranking:" + indexName + ":" + buildID
}

func markerKey(indexName, buildID string) string {
	return "kwic:ranking-complete:" + indexName + ":" + buildID
}

// Store writes lines under the build's key. The completion marker is set in
// the same transaction, so readers either see every line or report a miss.
func (c *redisRankingCache) Store(ctx context.Context, indexName, buildID string, lines []string) error {
	key := rankingKey(indexName, buildID)
	marker := markerKey(indexName, buildID)

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key, marker)
		for start := 0; start < len(lines); start += pushBatch {
			end := min(start+pushBatch, len(lines))
			values := make([]interface{}, 0, end-start)
			for _, line := range lines[start:end] {
				values = append(values, line)
			}
			pipe.RPush(ctx, key, values...)
		}
		pipe.Expire(ctx, key, c.ttl)
		pipe.Set(ctx, marker, len(lines), c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache ranking of index '%s': %w", indexName, err)
	}
	return nil
}

// Lines returns lines [start, stop] of a cached build, Redis LRANGE style
// (stop -1 means the last line). ok is false on a miss.
func (c *redisRankingCache) Lines(ctx context.Context, indexName, buildID string, start, stop int64) ([]string, bool, error) {
	marker := markerKey(indexName, buildID)
	if _, err := c.rdb.Get(ctx, marker).Result(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache marker of index '%s': %w", indexName, err)
	}

	lines, err := c.rdb.LRange(ctx, rankingKey(indexName, buildID), start, stop).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached ranking of index '%s': %w", indexName, err)
	}
	return lines, true, nil
}

// Invalidate drops every cached build of indexName.
func (c *redisRankingCache) Invalidate(ctx context.Context, indexName string) error {
	var keys []string
	for _, pattern := range []string{rankingKey(indexName, "*"), markerKey(indexName, "*")} {
		iter := c.rdb.Scan(ctx, 0, escapePattern(pattern), 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan cache keys of index '%s': %w", indexName, err)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache of index '%s': %w", indexName, err)
	}
	return nil
}

// escapePattern escapes glob metacharacters in everything but a trailing "*".
func escapePattern(pattern string) string {
	body := strings.TrimSuffix(pattern, "*")
	replacer := strings.NewReplacer(`\`, `\\`, "?", `\?`, "[", `\[`, "]", `\]`, "*", `\*`)
	return replacer.Replace(body) + "*"
}
