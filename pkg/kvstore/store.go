// Package kvstore 提供了带过期语义的键值存储抽象。
// 会话历史、响应缓存与凭证缓存都通过该接口访问底层存储，
// 并发安全由存储端的原子键操作保证，业务层不再持有全局可变 map。
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 表示键不存在或已过期。
var ErrNotFound = errors.New("kvstore: key not found")

// Store 定义了过期键值后端的操作集合。
// 任何操作都可能因后端连接问题返回错误，调用方按各自的
// fail-open / fail-closed 策略处理。
type Store interface {
	// Get 读取键的值，键不存在或已过期时返回 ErrNotFound。
	Get(ctx context.Context, key string) (string, error)
	// Set 写入键值并设置过期时间，ttl<=0 表示不过期。
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete 删除键，键不存在时不视为错误。
	Delete(ctx context.Context, key string) error
	// Exists 判断键是否存在。
	Exists(ctx context.Context, key string) (bool, error)
	// ExtendTTL 将键的过期时间延长到 ttl，仅在新过期时间晚于当前时生效。
	ExtendTTL(ctx context.Context, key string, ttl time.Duration) error
	// Keys 返回匹配 pattern 的所有键。
	Keys(ctx context.Context, pattern string) ([]string, error)
	// AddToSet 向集合追加成员并刷新集合的过期时间。
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error
	// RemoveFromSet 从集合移除成员，成员不存在时不视为错误。
	RemoveFromSet(ctx context.Context, key, member string) error
	// SetMembers 返回集合的全部成员，集合不存在时返回空切片。
	SetMembers(ctx context.Context, key string) ([]string, error)
	// Incr 原子自增计数器并返回自增后的值，首次自增时设置过期时间。
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
