package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/feed"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisTagCache(t *testing.T) {
	ctx := context.Background()
	rc, err := NewRedisTagCache(ctx, startRedis(t))
	require.NoError(t, err)
	defer rc.Close()

	_, ok, err := rc.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	counts := []board.TagCount{{Tag: "ui", Count: 3}, {Tag: "api", Count: 1}}
	require.NoError(t, rc.Set(ctx, counts))

	got, ok, err := rc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, counts, got)

	require.NoError(t, rc.Set(ctx, nil))
	got, ok, err = rc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)

	require.NoError(t, rc.Invalidate(ctx))
	_, ok, err = rc.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisTagCacheBadURL(t *testing.T) {
	_, err := NewRedisTagCache(context.Background(), "not a url")
	assert.Error(t, err)
}

type countingCache struct {
	Nop
	invalidated int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidated++
	return nil
}

func TestInvalidationSink(t *testing.T) {
	cc := &countingCache{}
	sink := InvalidationSink{Cache: cc}

	f := sink.Filter()
	assert.True(t, f.Match(feed.Event{Table: "product_requests", Type: feed.Insert, Record: []byte(`{}`)}))
	assert.True(t, f.Match(feed.Event{Type: feed.Resync}))
	assert.False(t, f.Match(feed.Event{Table: "votes", Type: feed.Insert, Record: []byte(`{}`)}))

	require.NoError(t, sink.Deliver(context.Background(), feed.Event{Table: "product_requests", Type: feed.Truncate}))
	assert.Equal(t, 1, cc.invalidated)
}
