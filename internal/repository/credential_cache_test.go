package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-advisor-go/pkg/kvstore"
)

func TestCredentialIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	cache := NewCredentialCache(kvstore.NewMemoryStore(), time.Hour)

	id, err := cache.Issue(ctx, 42, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.True(t, cache.IsValid(ctx, id))
	assert.False(t, cache.IsValid(ctx, "nonexistent"))
	assert.False(t, cache.IsValid(ctx, ""))
}

func TestCredentialExpiry(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	current := time.Now()
	store.SetClock(func() time.Time { return current })
	cache := NewCredentialCache(store, time.Hour)

	id, err := cache.Issue(ctx, 42, time.Hour)
	require.NoError(t, err)

	current = current.Add(61 * time.Minute)
	assert.False(t, cache.IsValid(ctx, id))
}

func TestCredentialRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	cache := NewCredentialCache(store, time.Hour)

	id, err := cache.Issue(ctx, 42, time.Hour)
	require.NoError(t, err)

	require.NoError(t, cache.Revoke(ctx, id))
	assert.False(t, cache.IsValid(ctx, id))

	// 再次吊销同一凭证以及吊销从未存在的凭证都不是错误
	require.NoError(t, cache.Revoke(ctx, id))
	require.NoError(t, cache.Revoke(ctx, "never-issued"))

	// owner 索引同步清理
	members, err := store.SetMembers(ctx, "credentials:owner:42")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCredentialRevokeAll(t *testing.T) {
	ctx := context.Background()
	cache := NewCredentialCache(kvstore.NewMemoryStore(), time.Hour)

	id1, err := cache.Issue(ctx, 42, time.Hour)
	require.NoError(t, err)
	id2, err := cache.Issue(ctx, 42, time.Hour)
	require.NoError(t, err)
	other, err := cache.Issue(ctx, 7, time.Hour)
	require.NoError(t, err)

	require.NoError(t, cache.RevokeAll(ctx, 42))

	assert.False(t, cache.IsValid(ctx, id1))
	assert.False(t, cache.IsValid(ctx, id2))
	// 其他 owner 的凭证不受影响
	assert.True(t, cache.IsValid(ctx, other))

	// 空 owner 的批量吊销也是幂等的
	require.NoError(t, cache.RevokeAll(ctx, 42))
}

func TestCredentialValidateFailsOpen(t *testing.T) {
	ctx := context.Background()
	cache := NewCredentialCache(unavailableStore{}, time.Hour)

	// 后端不可用时放行，换取故障期间的服务可用性
	assert.True(t, cache.IsValid(ctx, "any-credential"))
}
