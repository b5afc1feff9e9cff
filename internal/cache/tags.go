// Package cache holds the computed tag popularity list between writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/feed"
)

const (
	tagsKey = "board:tags"
	tagsTTL = 10 * time.Minute
)

// TagCache stores the result of board.TagCounts. A miss is (nil, false, nil).
type TagCache interface {
	Get(ctx context.Context) ([]board.TagCount, bool, error)
	Set(ctx context.Context, counts []board.TagCount) error
	Invalidate(ctx context.Context) error
	Close() error
}

type RedisTagCache struct {
	client *redis.Client
}

func NewRedisTagCache(ctx context.Context, url string) (*RedisTagCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &RedisTagCache{client: c}, nil
}

func (rc *RedisTagCache) Get(ctx context.Context) ([]board.TagCount, bool, error) {
	raw, err := rc.client.Get(ctx, tagsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading tags from redis: %w", err)
	}

	var counts []board.TagCount
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, false, fmt.Errorf("error decoding cached tags: %w", err)
	}
	return counts, true, nil
}

func (rc *RedisTagCache) Set(ctx context.Context, counts []board.TagCount) error {
	if counts == nil {
		counts = []board.TagCount{}
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("error encoding tags: %w", err)
	}
	if err := rc.client.Set(ctx, tagsKey, raw, tagsTTL).Err(); err != nil {
		return fmt.Errorf("error writing tags to redis: %w", err)
	}
	return nil
}

func (rc *RedisTagCache) Invalidate(ctx context.Context) error {
	if err := rc.client.Del(ctx, tagsKey).Err(); err != nil {
		return fmt.Errorf("error invalidating tags in redis: %w", err)
	}
	return nil
}

func (rc *RedisTagCache) Close() error {
	if err := rc.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}

// Nop never holds anything. It stands in when no redis is configured.
type Nop struct{}

func (Nop) Get(context.Context) ([]board.TagCount, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, []board.TagCount) error         { return nil }
func (Nop) Invalidate(context.Context) error                    { return nil }
func (Nop) Close() error                                        { return nil }

// InvalidationSink drops the cached tags whenever a request row changes.
type InvalidationSink struct {
	Cache TagCache
}

func (InvalidationSink) Name() string { return "tag-cache" }

func (InvalidationSink) Filter() feed.Filter {
	return feed.Filter{Table: "product_requests"}
}

func (s InvalidationSink) Deliver(ctx context.Context, _ feed.Event) error {
	return s.Cache.Invalidate(ctx)
}
