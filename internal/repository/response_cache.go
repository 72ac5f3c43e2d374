package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/pkg/kvstore"
	"paw-advisor-go/pkg/log"
)

const responseCachePrefix = "advice:cache:"

// CacheStats 是响应缓存的命中统计。
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hitRatio"`
}

// ResponseCache 定义了首轮问答的内容寻址缓存接口。
// 后端不可用一律按未命中处理：缓存缺席不能阻断请求链路。
type ResponseCache interface {
	// Get 按指纹查询缓存，未命中或已过期返回 (nil, false)，命中时滑动延长 TTL。
	Get(ctx context.Context, fp string) (*model.CachedResponse, bool)
	// Put 写入缓存并设置绝对 TTL，允许覆盖（last-writer-wins）。
	Put(ctx context.Context, fp, answer, reasoning string)
	// Stats 返回累计命中统计。
	Stats() CacheStats
	// Clear 清空缓存并重置计数器，仅供维护路径调用。
	Clear(ctx context.Context) error
}

type responseCache struct {
	store      kvstore.Store
	ttl        time.Duration
	slidingTTL time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewResponseCache 创建一个新的 ResponseCache 实例。
func NewResponseCache(store kvstore.Store, ttl, slidingTTL time.Duration) ResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if slidingTTL <= 0 {
		slidingTTL = 30 * time.Minute
	}
	return &responseCache{
		store:      store,
		ttl:        ttl,
		slidingTTL: slidingTTL,
	}
}

func (c *responseCache) Get(ctx context.Context, fp string) (*model.CachedResponse, bool) {
	key := responseCachePrefix + fp
	jsonData, err := c.store.Get(ctx, key)
	if err != nil {
		if err != kvstore.ErrNotFound {
			log.Warnf("响应缓存读取失败，按未命中处理: fp=%s, err=%v", fp, err)
		}
		c.misses.Add(1)
		return nil, false
	}

	var cached model.CachedResponse
	if err := json.Unmarshal([]byte(jsonData), &cached); err != nil {
		log.Warnf("响应缓存反序列化失败，按未命中处理: fp=%s, err=%v", fp, err)
		c.misses.Add(1)
		return nil, false
	}

	// 热点条目滑动续期，失败不影响命中结果
	if err := c.store.ExtendTTL(ctx, key, c.slidingTTL); err != nil {
		log.Warnf("响应缓存续期失败: fp=%s, err=%v", fp, err)
	}

	c.hits.Add(1)
	return &cached, true
}

func (c *responseCache) Put(ctx context.Context, fp, answer, reasoning string) {
	cached := model.CachedResponse{
		Answer:    answer,
		Reasoning: reasoning,
		CreatedAt: time.Now(),
	}
	jsonData, err := json.Marshal(cached)
	if err != nil {
		log.Errorf("响应缓存序列化失败: fp=%s, err=%v", fp, err)
		return
	}
	if err := c.store.Set(ctx, responseCachePrefix+fp, string(jsonData), c.ttl); err != nil {
		log.Warnf("响应缓存写入失败: fp=%s, err=%v", fp, err)
	}
}

func (c *responseCache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	stats := CacheStats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRatio = float64(hits) / float64(total)
	}
	return stats
}

func (c *responseCache) Clear(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, responseCachePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to scan response cache keys: %w", err)
	}
	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("failed to delete cache key %s: %w", k, err)
		}
	}
	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}
