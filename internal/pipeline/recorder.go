// Package pipeline 定义了问答事件的后台落库流程。
package pipeline

import (
	"context"
	"fmt"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/repository"
	"paw-advisor-go/pkg/log"
	"paw-advisor-go/pkg/tasks"
)

// Recorder 消费 Kafka 上的问答事件并持久化为 advice_records 记录。
// 落库在请求链路之外异步发生，失败不影响已经返回给用户的回答。
type Recorder struct {
	recordRepo repository.AdviceRecordRepository
}

// NewRecorder 创建一个新的 Recorder 实例。
func NewRecorder(recordRepo repository.AdviceRecordRepository) *Recorder {
	return &Recorder{recordRepo: recordRepo}
}

// Process 实现 kafka.EventProcessor 接口。
func (r *Recorder) Process(ctx context.Context, event tasks.AdviceEvent) error {
	record := &model.AdviceRecord{
		SessionID: event.SessionID,
		UserID:    event.UserID,
		Question:  event.Question,
		Answer:    event.Answer,
		CacheHit:  event.CacheHit,
		CreatedAt: event.CreatedAt,
	}
	if err := r.recordRepo.Create(record); err != nil {
		return fmt.Errorf("failed to persist advice record: %w", err)
	}
	log.Infow("问答记录已落库",
		"sessionId", event.SessionID,
		"userId", event.UserID,
		"cacheHit", event.CacheHit,
	)
	return nil
}
