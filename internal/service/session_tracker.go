// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"sync"
	"time"

	"paw-advisor-go/pkg/log"
)

// activeWindow 内有活动的会话计入 activeSessions 统计。
const activeWindow = time.Hour

// 每条消息与每个会话元数据的内存占用估算值（字节），仅用于统计展示。
const (
	bytesPerTurn    = 220
	bytesPerSession = 96
)

// SessionActivity 记录单个会话的活跃度元数据。
type SessionActivity struct {
	SessionID    string    `json:"sessionId"`
	LastActivity time.Time `json:"lastActivity"`
	TurnCount    int       `json:"turnCount"`
}

// SessionStats 是活跃度跟踪器的聚合统计。
type SessionStats struct {
	TotalSessions        int   `json:"totalSessions"`
	ActiveSessions       int   `json:"activeSessions"`
	TotalTurns           int   `json:"totalTurns"`
	EstimatedMemoryBytes int64 `json:"estimatedMemoryBytes"`
}

// SessionTracker 跟踪每个会话的最近活动时间，并由后台清扫任务淘汰超时会话。
// 被淘汰会话的历史记录依赖过期后端自身的 TTL 回收，清扫不做二次删除。
type SessionTracker struct {
	mu       sync.RWMutex
	sessions map[string]*SessionActivity
	timeout  time.Duration
	now      func() time.Time
	onEvict  func(sessionID string)
}

// NewSessionTracker 创建一个活跃度跟踪器，timeout 是会话的不活跃超时。
func NewSessionTracker(timeout time.Duration) *SessionTracker {
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &SessionTracker{
		sessions: make(map[string]*SessionActivity),
		timeout:  timeout,
		now:      time.Now,
	}
}

// SetClock 注入时间源，仅供测试使用。
func (t *SessionTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// SetEvictCallback 注册清扫淘汰回调，让持有会话级资源（如互斥锁）的组件
// 在会话被淘汰时同步释放。回调在跟踪器锁之外执行。
func (t *SessionTracker) SetEvictCallback(fn func(sessionID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEvict = fn
}

// RecordActivity 在每轮成功问答后刷新会话的活跃时间与轮次计数。
func (t *SessionTracker) RecordActivity(sessionID string, turnCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionID] = &SessionActivity{
		SessionID:    sessionID,
		LastActivity: t.now(),
		TurnCount:    turnCount,
	}
}

// Remove 删除会话的活跃度记录，用于客户端显式结束会话。
func (t *SessionTracker) Remove(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// Sweep 淘汰所有超过不活跃超时的会话，返回本次淘汰的数量。
// 对淘汰结果是幂等的：紧接着的第二次调用不会再淘汰任何会话。
func (t *SessionTracker) Sweep() int {
	t.mu.Lock()
	cutoff := t.now().Add(-t.timeout)
	var evicted []string
	for id, activity := range t.sessions {
		if activity.LastActivity.Before(cutoff) {
			delete(t.sessions, id)
			evicted = append(evicted, id)
		}
	}
	onEvict := t.onEvict
	t.mu.Unlock()

	if onEvict != nil {
		for _, id := range evicted {
			onEvict(id)
		}
	}
	return len(evicted)
}

// Stats 返回当前的聚合统计。
func (t *SessionTracker) Stats() SessionStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := SessionStats{TotalSessions: len(t.sessions)}
	activeCutoff := t.now().Add(-activeWindow)
	for _, activity := range t.sessions {
		stats.TotalTurns += activity.TurnCount
		if !activity.LastActivity.Before(activeCutoff) {
			stats.ActiveSessions++
		}
	}
	stats.EstimatedMemoryBytes = int64(stats.TotalTurns)*bytesPerTurn + int64(stats.TotalSessions)*bytesPerSession
	return stats
}

// StartSweeper 启动后台清扫循环，按 interval 周期执行 Sweep，ctx 取消时退出。
// 清扫独立于请求处理，只在清扫过程中短暂持有跟踪器内部锁。
func (t *SessionTracker) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("会话清扫任务已启动，周期 %s，超时阈值 %s", interval, t.timeout)
	for {
		select {
		case <-ctx.Done():
			log.Info("会话清扫任务已停止")
			return
		case <-ticker.C:
			if removed := t.Sweep(); removed > 0 {
				log.Infof("会话清扫完成，淘汰 %d 个不活跃会话", removed)
			}
		}
	}
}
