package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (RenderedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisRankingCache(rdb, time.Minute), mr
}

func TestRankingCache_StoreAndRead(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	lines := []string{"Descriptive notation, in", "expressions for", "for expressions"}
	require.NoError(t, c.Store(ctx, "books", "b1", lines))

	got, ok, err := c.Lines(ctx, "books", "b1", 0, -1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, lines, got)

	got, ok, err = c.Lines(ctx, "books", "b1", 1, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"expressions for"}, got)
}

func TestRankingCache_MissForOtherBuild(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "books", "b1", []string{"a"}))

	_, ok, err := c.Lines(ctx, "books", "b2", 0, -1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRankingCache_EmptyRankingIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "empty", "b1", nil))

	got, ok, err := c.Lines(ctx, "empty", "b1", 0, -1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRankingCache_LargeRankingIsBatched(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	lines := make([]string, 2*pushBatch+7)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %05d", i)
	}
	require.NoError(t, c.Store(ctx, "big", "b1", lines))

	got, ok, err := c.Lines(ctx, "big", "b1", 0, -1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, lines, got)
}

func TestRankingCache_ExpiresWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "books", "b1", []string{"a"}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Lines(ctx, "books", "b1", 0, -1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRankingCache_InvalidateOnlyTouchesOneIndex(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "books", "b1", []string{"a"}))
	require.NoError(t, c.Store(ctx, "books", "b2", []string{"b"}))
	require.NoError(t, c.Store(ctx, "books2", "b1", []string{"c"}))

	require.NoError(t, c.Invalidate(ctx, "books"))

	_, ok, err := c.Lines(ctx, "books", "b1", 0, -1)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = c.Lines(ctx, "books", "b2", 0, -1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := c.Lines(ctx, "books2", "b1", 0, -1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"c"}, got)

	require.NoError(t, c.Invalidate(ctx, "missing"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	c, err := Connect(context.Background(), addr, "", 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, c)

	mr.Close()
	_, err = Connect(context.Background(), addr, "", 0, 0)
	assert.Error(t, err)
}

func TestEscapePattern(t *testing.T) {
	assert.Equal(t, `kwic:ranking:a\*b\?:*`, escapePattern("kwic:ranking:a*b?:*"))
}
