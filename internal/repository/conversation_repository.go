// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"paw-advisor-go/internal/config"
	"paw-advisor-go/internal/model"
	"paw-advisor-go/pkg/kvstore"
	"paw-advisor-go/pkg/log"
)

// defaultSystemRules 是内置的系统提示模板，可被配置覆盖。
const defaultSystemRules = "你是一位专业的宠物护理助手，基于常见的兽医建议回答宠物喂养、健康与行为问题。" +
	"回答要具体、可执行；涉及急症时明确提醒用户尽快就医，不要编造诊断。"

// ActivityRecorder 在成功的一轮问答后接收活跃度上报。
// 由会话活跃度跟踪器实现，通过依赖注入传入，避免跨包静态状态。
type ActivityRecorder interface {
	RecordActivity(sessionID string, turnCount int)
}

// ConversationRepository 定义了会话多轮历史的操作接口。
type ConversationRepository interface {
	// Initialize 返回只含系统消息的新对话序列，可附带宠物档案上下文。
	Initialize(pet *model.PetProfile) []model.ChatMessage
	// Load 从过期后端读取会话历史；键缺失、已过期或后端出错都视为不存在。
	Load(ctx context.Context, sessionID string) ([]model.ChatMessage, bool)
	// AppendAndPersist 追加助手回答、应用裁剪策略、刷新 TTL 重新持久化，并上报活跃度。
	// 持久化失败只记录日志，调用方仍拿到本次请求的完整序列。
	AppendAndPersist(ctx context.Context, sessionID string, turns []model.ChatMessage, answer string) []model.ChatMessage
	// Delete 删除会话历史，用于客户端显式结束会话。
	Delete(ctx context.Context, sessionID string) error
}

type conversationRepository struct {
	store    kvstore.Store
	maxTurns int
	ttl      time.Duration
	recorder ActivityRecorder
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(store kvstore.Store, maxTurns int, ttl time.Duration, recorder ActivityRecorder) ConversationRepository {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &conversationRepository{
		store:    store,
		maxTurns: maxTurns,
		ttl:      ttl,
		recorder: recorder,
	}
}

func conversationKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s", sessionID)
}

// Initialize 合成系统消息：固定规则模板加可选的宠物档案上下文。
func (r *conversationRepository) Initialize(pet *model.PetProfile) []model.ChatMessage {
	rules := config.Conf.LLM.Prompt.Rules
	if rules == "" {
		rules = defaultSystemRules
	}

	var sys strings.Builder
	sys.WriteString(rules)
	if pet != nil {
		sys.WriteString("\n\n当前宠物档案：")
		sys.WriteString(fmt.Sprintf("名字 %s，物种 %s", pet.Name, pet.Species))
		if pet.Breed != "" {
			sys.WriteString("，品种 " + pet.Breed)
		}
		if pet.Age > 0 {
			sys.WriteString(fmt.Sprintf("，年龄 %d 岁", pet.Age))
		}
		if pet.Gender != "" {
			sys.WriteString("，性别 " + pet.Gender)
		}
		sys.WriteString("。请结合档案信息作答。")
	}

	return []model.ChatMessage{{
		Role:      model.RoleSystem,
		Content:   sys.String(),
		Timestamp: time.Now(),
	}}
}

// Load 读取会话历史。任何失败对调用方都表现为"不存在"，由其回退到 Initialize。
func (r *conversationRepository) Load(ctx context.Context, sessionID string) ([]model.ChatMessage, bool) {
	jsonData, err := r.store.Get(ctx, conversationKey(sessionID))
	if err != nil {
		if err != kvstore.ErrNotFound {
			log.Warnf("读取会话历史失败，按新会话处理: session=%s, err=%v", sessionID, err)
		}
		return nil, false
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		log.Warnf("会话历史反序列化失败，按新会话处理: session=%s, err=%v", sessionID, err)
		return nil, false
	}
	if len(messages) == 0 {
		return nil, false
	}
	return messages, true
}

// AppendAndPersist 追加助手消息并应用裁剪不变式后重新持久化。
func (r *conversationRepository) AppendAndPersist(ctx context.Context, sessionID string, turns []model.ChatMessage, answer string) []model.ChatMessage {
	turns = append(turns, model.ChatMessage{
		Role:      model.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now(),
	})
	turns = r.trim(turns)

	jsonData, err := json.Marshal(turns)
	if err != nil {
		log.Errorf("会话历史序列化失败: session=%s, err=%v", sessionID, err)
	} else if err := r.store.Set(ctx, conversationKey(sessionID), string(jsonData), r.ttl); err != nil {
		// 持久化失败不影响本次响应，下一轮可能观察到旧历史
		log.Errorf("会话历史持久化失败: session=%s, err=%v", sessionID, err)
	}

	if r.recorder != nil {
		r.recorder.RecordActivity(sessionID, len(turns))
	}
	return turns
}

// trim 在序列超过上限时去掉位置 1、2 上最老的一对 user/assistant 消息。
// 位置 0 的系统消息永不淘汰。
func (r *conversationRepository) trim(turns []model.ChatMessage) []model.ChatMessage {
	if len(turns) <= r.maxTurns {
		return turns
	}
	trimmed := make([]model.ChatMessage, 0, len(turns)-2)
	trimmed = append(trimmed, turns[0])
	trimmed = append(trimmed, turns[3:]...)
	return trimmed
}

// Delete 删除会话历史。
func (r *conversationRepository) Delete(ctx context.Context, sessionID string) error {
	return r.store.Delete(ctx, conversationKey(sessionID))
}
