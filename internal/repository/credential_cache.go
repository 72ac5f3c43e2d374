package repository

import (
	"context"
	"fmt"
	"time"

	"paw-advisor-go/pkg/kvstore"
	"paw-advisor-go/pkg/log"
	"paw-advisor-go/pkg/token"
)

// CredentialCache 签发并吊销短时效访问凭证。
//
// 主键 credential:<id> 是凭证有效性的唯一事实来源；
// owner 索引集合只服务于批量吊销的清理，单凭证校验不依赖它。
type CredentialCache interface {
	// Issue 签发一个新凭证并写入主键与 owner 索引（索引 TTL = ttl + 宽限期）。
	Issue(ctx context.Context, ownerID uint, ttl time.Duration) (string, error)
	// IsValid 仅对主键做存在性检查。后端不可用时 fail-open 返回 true 并告警，
	// 以可用性换取故障期间较弱的吊销保证。
	IsValid(ctx context.Context, credentialID string) bool
	// Revoke 删除主键并尽力从 owner 索引移除。幂等：吊销不存在的凭证不是错误。
	Revoke(ctx context.Context, credentialID string) error
	// RevokeAll 吊销某 owner 名下的全部凭证。
	RevokeAll(ctx context.Context, ownerID uint) error
}

type credentialCache struct {
	store kvstore.Store
	grace time.Duration
}

// NewCredentialCache 创建一个新的 CredentialCache 实例。
func NewCredentialCache(store kvstore.Store, grace time.Duration) CredentialCache {
	if grace <= 0 {
		grace = time.Hour
	}
	return &credentialCache{store: store, grace: grace}
}

func credentialKey(id string) string {
	return fmt.Sprintf("credential:%s", id)
}

func ownerIndexKey(ownerID uint) string {
	return fmt.Sprintf("credentials:owner:%d", ownerID)
}

func (c *credentialCache) Issue(ctx context.Context, ownerID uint, ttl time.Duration) (string, error) {
	id := token.GenerateRandomString(16)

	if err := c.store.Set(ctx, credentialKey(id), fmt.Sprintf("%d", ownerID), ttl); err != nil {
		return "", fmt.Errorf("failed to store credential: %w", err)
	}
	// owner 索引是尽力而为的辅助结构，写入失败不回滚主键
	if err := c.store.AddToSet(ctx, ownerIndexKey(ownerID), id, ttl+c.grace); err != nil {
		log.Warnf("凭证 owner 索引写入失败: owner=%d, err=%v", ownerID, err)
	}
	return id, nil
}

func (c *credentialCache) IsValid(ctx context.Context, credentialID string) bool {
	if credentialID == "" {
		return false
	}
	exists, err := c.store.Exists(ctx, credentialKey(credentialID))
	if err != nil {
		// fail-open：后端故障期间放行，保持服务可用
		log.Warnf("凭证校验后端不可用，fail-open 放行: credential=%s, err=%v", credentialID, err)
		return true
	}
	return exists
}

func (c *credentialCache) Revoke(ctx context.Context, credentialID string) error {
	ownerVal, err := c.store.Get(ctx, credentialKey(credentialID))
	if err != nil && err != kvstore.ErrNotFound {
		return fmt.Errorf("failed to look up credential: %w", err)
	}

	if err := c.store.Delete(ctx, credentialKey(credentialID)); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	// 主键已删，索引清理失败不影响吊销正确性
	if ownerVal != "" {
		if err := c.store.RemoveFromSet(ctx, "credentials:owner:"+ownerVal, credentialID); err != nil {
			log.Warnf("凭证 owner 索引清理失败: credential=%s, err=%v", credentialID, err)
		}
	}
	return nil
}

func (c *credentialCache) RevokeAll(ctx context.Context, ownerID uint) error {
	ids, err := c.store.SetMembers(ctx, ownerIndexKey(ownerID))
	if err != nil {
		return fmt.Errorf("failed to list owner credentials: %w", err)
	}
	for _, id := range ids {
		if err := c.store.Delete(ctx, credentialKey(id)); err != nil {
			return fmt.Errorf("failed to delete credential %s: %w", id, err)
		}
	}
	if err := c.store.Delete(ctx, ownerIndexKey(ownerID)); err != nil {
		log.Warnf("凭证 owner 索引删除失败: owner=%d, err=%v", ownerID, err)
	}
	return nil
}
