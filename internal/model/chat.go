package model

import "time"

// 对话消息的角色。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 代表存储在过期键值后端中的单条对话消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "system"、"user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CachedResponse 代表以指纹为键缓存的一次完整回答。创建后不再修改。
type CachedResponse struct {
	Answer    string    `json:"answer"`
	Reasoning string    `json:"reasoning,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdviceResult 是问答编排器向上层返回的结果。
// 即使模型调用失败也会携带 SessionID，客户端可在同一会话内重试；
// ErrorID 用于和日志关联排查。
type AdviceResult struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning,omitempty"`
	SessionID string `json:"sessionId"`
	ErrorID   string `json:"errorId,omitempty"`
}

// AdviceRecord 对应于数据库中的 'advice_records' 表，由后台消费者异步落库。
type AdviceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"type:varchar(64);index;not null" json:"sessionId"`
	UserID    uint      `gorm:"index" json:"userId"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	CacheHit  bool      `json:"cacheHit"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (AdviceRecord) TableName() string {
	return "advice_records"
}
