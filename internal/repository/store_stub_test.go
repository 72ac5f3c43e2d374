package repository

import (
	"context"
	"errors"
	"time"
)

// unavailableStore 模拟后端整体不可用，所有操作统一返回错误。
type unavailableStore struct{}

var errStoreDown = errors.New("store unavailable")

func (unavailableStore) Get(ctx context.Context, key string) (string, error) {
	return "", errStoreDown
}
func (unavailableStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errStoreDown
}
func (unavailableStore) Delete(ctx context.Context, key string) error { return errStoreDown }
func (unavailableStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, errStoreDown
}
func (unavailableStore) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	return errStoreDown
}
func (unavailableStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, errStoreDown
}
func (unavailableStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	return errStoreDown
}
func (unavailableStore) RemoveFromSet(ctx context.Context, key, member string) error {
	return errStoreDown
}
func (unavailableStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	return nil, errStoreDown
}
func (unavailableStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errStoreDown
}
