// Package tasks defines the structure for events that are sent to Kafka.
package tasks

import "time"

// AdviceEvent 表示一次完成的问答交互，发往 Kafka 供后台落库与统计。
type AdviceEvent struct {
	SessionID string    `json:"session_id"`
	UserID    uint      `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CacheHit  bool      `json:"cache_hit"`
	CreatedAt time.Time `json:"created_at"`
}
