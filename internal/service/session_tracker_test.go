package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionTrackerRecordAndStats(t *testing.T) {
	tracker := NewSessionTracker(24 * time.Hour)

	tracker.RecordActivity("s1", 3)
	tracker.RecordActivity("s2", 5)
	tracker.RecordActivity("s1", 7) // 同会话刷新覆盖旧值

	stats := tracker.Stats()
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 12, stats.TotalTurns)
	assert.Equal(t, int64(12*bytesPerTurn+2*bytesPerSession), stats.EstimatedMemoryBytes)
}

func TestSessionTrackerSweep(t *testing.T) {
	tracker := NewSessionTracker(24 * time.Hour)
	current := time.Now()
	tracker.SetClock(func() time.Time { return current })

	tracker.RecordActivity("stale", 2)

	current = current.Add(25 * time.Hour)
	tracker.RecordActivity("fresh", 4)

	removed := tracker.Sweep()
	assert.Equal(t, 1, removed)

	stats := tracker.Stats()
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 4, stats.TotalTurns)

	// 幂等：紧接着的第二次清扫不再淘汰
	assert.Equal(t, 0, tracker.Sweep())
}

func TestSessionTrackerSweepAtBoundary(t *testing.T) {
	tracker := NewSessionTracker(24 * time.Hour)
	current := time.Now()
	tracker.SetClock(func() time.Time { return current })

	tracker.RecordActivity("edge", 1)

	// 恰好等于超时阈值时不淘汰，只淘汰严格超过的
	current = current.Add(24 * time.Hour)
	assert.Equal(t, 0, tracker.Sweep())

	current = current.Add(time.Second)
	assert.Equal(t, 1, tracker.Sweep())
}

func TestSessionTrackerRemove(t *testing.T) {
	tracker := NewSessionTracker(24 * time.Hour)

	tracker.RecordActivity("s1", 3)
	tracker.Remove("s1")
	tracker.Remove("s1") // 重复删除不报错

	assert.Equal(t, 0, tracker.Stats().TotalSessions)
}

func TestSessionTrackerActiveWindow(t *testing.T) {
	tracker := NewSessionTracker(24 * time.Hour)
	current := time.Now()
	tracker.SetClock(func() time.Time { return current })

	tracker.RecordActivity("old", 2)

	current = current.Add(2 * time.Hour)
	tracker.RecordActivity("recent", 2)

	// old 未超时仍被跟踪，但已滑出 1 小时活跃窗口
	stats := tracker.Stats()
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.ActiveSessions)
}
