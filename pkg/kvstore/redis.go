package kvstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore 是 Store 的 Redis 实现。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 基于已建立的 Redis 客户端创建一个 RedisStore。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExtendTTL 仅在延长键寿命时才更新过期时间，避免把一个新鲜的键缩短到滑动窗口。
func (s *RedisStore) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	remaining, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return err
	}
	// -2: 键不存在；-1: 未设置过期，都不处理
	if remaining < 0 || remaining >= ttl {
		return nil
	}
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return s.client.Keys(ctx, pattern).Result()
}

func (s *RedisStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		return err
	}
	if ttl > 0 {
		return s.client.Expire(ctx, key, ttl).Err()
	}
	return nil
}

func (s *RedisStore) RemoveFromSet(ctx context.Context, key, member string) error {
	return s.client.SRem(ctx, key, member).Err()
}

func (s *RedisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Incr 自增计数器，首次创建时附带过期时间（对齐固定窗口限流的用法）。
func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		_ = s.client.Expire(ctx, key, ttl).Err()
	}
	return n, nil
}
