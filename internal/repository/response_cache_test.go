package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-advisor-go/pkg/kvstore"
)

func TestResponseCachePutGet(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache(kvstore.NewMemoryStore(), time.Hour, 30*time.Minute)

	_, ok := cache.Get(ctx, "fp-miss")
	assert.False(t, ok)

	cache.Put(ctx, "fp-1", "每天喂两次。", "小型犬建议少量多餐")

	cached, ok := cache.Get(ctx, "fp-1")
	require.True(t, ok)
	assert.Equal(t, "每天喂两次。", cached.Answer)
	assert.Equal(t, "小型犬建议少量多餐", cached.Reasoning)
	assert.False(t, cached.CreatedAt.IsZero())
}

func TestResponseCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache(kvstore.NewMemoryStore(), time.Hour, 30*time.Minute)

	cache.Put(ctx, "fp-1", "旧答案", "")
	cache.Put(ctx, "fp-1", "新答案", "")

	cached, ok := cache.Get(ctx, "fp-1")
	require.True(t, ok)
	assert.Equal(t, "新答案", cached.Answer)
}

func TestResponseCacheExpiry(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	current := time.Now()
	store.SetClock(func() time.Time { return current })
	cache := NewResponseCache(store, time.Hour, 30*time.Minute)

	cache.Put(ctx, "fp-1", "答案", "")

	current = current.Add(61 * time.Minute)
	_, ok := cache.Get(ctx, "fp-1")
	assert.False(t, ok)
}

func TestResponseCacheSlidingTTL(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	current := time.Now()
	store.SetClock(func() time.Time { return current })
	cache := NewResponseCache(store, time.Hour, 30*time.Minute)

	cache.Put(ctx, "fp-1", "答案", "")

	// 到期前 10 分钟命中一次，滑动续期后应活过原始到期点
	current = current.Add(50 * time.Minute)
	_, ok := cache.Get(ctx, "fp-1")
	require.True(t, ok)

	current = current.Add(25 * time.Minute)
	_, ok = cache.Get(ctx, "fp-1")
	assert.True(t, ok)

	current = current.Add(31 * time.Minute)
	_, ok = cache.Get(ctx, "fp-1")
	assert.False(t, ok)
}

func TestResponseCacheStats(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache(kvstore.NewMemoryStore(), time.Hour, 30*time.Minute)

	cache.Get(ctx, "fp-1")
	cache.Put(ctx, "fp-1", "答案", "")
	cache.Get(ctx, "fp-1")
	cache.Get(ctx, "fp-1")

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio, 1e-9)
}

func TestResponseCacheClear(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache(kvstore.NewMemoryStore(), time.Hour, 30*time.Minute)

	cache.Put(ctx, "fp-1", "答案一", "")
	cache.Put(ctx, "fp-2", "答案二", "")
	cache.Get(ctx, "fp-1")

	require.NoError(t, cache.Clear(ctx))

	_, ok := cache.Get(ctx, "fp-1")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "fp-2")
	assert.False(t, ok)

	// Clear 重置计数器，之后的两次未命中构成全部统计
	stats := cache.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestResponseCacheBackendDownIsMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache(unavailableStore{}, time.Hour, 30*time.Minute)

	// 读写都不 panic、不向上冒泡错误
	cache.Put(ctx, "fp-1", "答案", "")
	_, ok := cache.Get(ctx, "fp-1")
	assert.False(t, ok)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Misses)
}
