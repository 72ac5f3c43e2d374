package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/repository"
	"paw-advisor-go/pkg/fingerprint"
	"paw-advisor-go/pkg/llm"
	"paw-advisor-go/pkg/log"
	"paw-advisor-go/pkg/tasks"
	"paw-advisor-go/pkg/token"

	"github.com/google/uuid"
)

// 对用户安全的失败文案，内部错误细节只进日志。
const (
	msgEmptyAnswer = "抱歉，暂时没有得到有效回答，请稍后再试。"
	msgNetwork     = "网络连接异常，请稍后重试。"
	msgTimeout     = "请求处理超时，请稍后重试。"
	msgAuth        = "AI 服务配置异常，请联系管理员。"
	msgRateLimited = "当前咨询人数较多，请稍后重试。"
	msgServer      = "AI 服务暂时不可用，请稍后重试。"
	msgUnknown     = "服务开小差了，请稍后重试。"
)

// EventPublisher 把完成的问答事件投递到消息队列，投递失败不影响响应。
type EventPublisher func(event tasks.AdviceEvent) error

// AdviceService 是问答编排器：组合响应缓存、会话存储、模型客户端与推理解析。
type AdviceService interface {
	// GetAdvice 处理一轮问答。sessionID 为空表示新会话；
	// 无论成功与否，返回值总是携带会话ID，供客户端在同一会话内重试。
	GetAdvice(ctx context.Context, message, sessionID string, pet *model.PetProfile, userID uint) *model.AdviceResult
	// EndSession 显式结束会话，删除历史并移除活跃度记录。
	EndSession(ctx context.Context, sessionID string) error
}

type adviceService struct {
	llmClient llm.Client
	convRepo  repository.ConversationRepository
	respCache repository.ResponseCache
	tracker   *SessionTracker
	publish   EventPublisher
	reasoning bool
	timeout   time.Duration

	// 同一会话的并发请求串行执行，保证轮次按请求顺序落盘
	sessionLocks sync.Map // key: sessionID, value: *sync.Mutex
}

// NewAdviceService 创建一个新的 AdviceService 实例。
// publish 可以为 nil，表示不投递问答事件。
func NewAdviceService(
	llmClient llm.Client,
	convRepo repository.ConversationRepository,
	respCache repository.ResponseCache,
	tracker *SessionTracker,
	publish EventPublisher,
	reasoning bool,
	timeout time.Duration,
) AdviceService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &adviceService{
		llmClient: llmClient,
		convRepo:  convRepo,
		respCache: respCache,
		tracker:   tracker,
		publish:   publish,
		reasoning: reasoning,
		timeout:   timeout,
	}
	// 会话被清扫淘汰时同步释放它的互斥锁，锁表随会话生命周期收缩
	tracker.SetEvictCallback(s.releaseSessionLock)
	return s
}

func (s *adviceService) GetAdvice(ctx context.Context, message, sessionID string, pet *model.PetProfile, userID uint) *model.AdviceResult {
	newSession := sessionID == ""
	if newSession {
		sessionID = uuid.NewString()
	}

	mu := s.lockSession(sessionID)
	defer mu.Unlock()

	// 响应缓存只服务会话的第一轮：携带会话ID的请求绕过缓存
	fp := ""
	if newSession {
		fp = fingerprint.Fingerprint(message, pet.Descriptor())
		if cached, ok := s.respCache.Get(ctx, fp); ok {
			return s.replayFromCache(ctx, sessionID, message, cached, pet, userID)
		}
	}

	turns, ok := s.convRepo.Load(ctx, sessionID)
	if !ok {
		turns = s.convRepo.Initialize(pet)
	}
	turns = append(turns, model.ChatMessage{
		Role:      model.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	})

	raw, err := s.callModel(ctx, turns)
	if err != nil {
		return s.failureResult(sessionID, err)
	}
	if strings.TrimSpace(raw) == "" {
		log.Warnf("模型输出为空: session=%s", sessionID)
		return &model.AdviceResult{Answer: msgEmptyAnswer, SessionID: sessionID}
	}

	answer, reasoning := raw, ""
	if s.reasoning {
		answer, reasoning = llm.ExtractReasoning(raw)
	}

	turns = s.convRepo.AppendAndPersist(ctx, sessionID, turns, answer)

	// 只在首轮交换完成后写缓存：system + user + assistant 恰好三条
	if newSession && len(turns) == 3 {
		s.respCache.Put(ctx, fp, answer, reasoning)
	}

	s.publishEvent(tasks.AdviceEvent{
		SessionID: sessionID,
		UserID:    userID,
		Question:  message,
		Answer:    answer,
		CreatedAt: time.Now(),
	})

	return &model.AdviceResult{
		Answer:    answer,
		Reasoning: reasoning,
		SessionID: sessionID,
	}
}

// EndSession 删除会话历史并移除活跃度记录，会话的互斥锁一并释放。
func (s *adviceService) EndSession(ctx context.Context, sessionID string) error {
	mu := s.lockSession(sessionID)
	defer mu.Unlock()
	defer s.releaseSessionLock(sessionID)

	s.tracker.Remove(sessionID)
	return s.convRepo.Delete(ctx, sessionID)
}

// lockSession 获取会话级互斥锁并加锁，调用方负责解锁。
func (s *adviceService) lockSession(sessionID string) *sync.Mutex {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

// releaseSessionLock 移除会话的互斥锁条目。与该会话并发的请求
// 会创建新条目并继续执行，结束中的会话不保证与它们串行。
func (s *adviceService) releaseSessionLock(sessionID string) {
	s.sessionLocks.Delete(sessionID)
}

// replayFromCache 用缓存命中的回答初始化新会话，使返回的会话ID可继续追问。
func (s *adviceService) replayFromCache(ctx context.Context, sessionID, message string, cached *model.CachedResponse, pet *model.PetProfile, userID uint) *model.AdviceResult {
	turns := s.convRepo.Initialize(pet)
	turns = append(turns, model.ChatMessage{
		Role:      model.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	})
	s.convRepo.AppendAndPersist(ctx, sessionID, turns, cached.Answer)

	s.publishEvent(tasks.AdviceEvent{
		SessionID: sessionID,
		UserID:    userID,
		Question:  message,
		Answer:    cached.Answer,
		CacheHit:  true,
		CreatedAt: time.Now(),
	})

	return &model.AdviceResult{
		Answer:    cached.Answer,
		Reasoning: cached.Reasoning,
		SessionID: sessionID,
	}
}

// callModel 以有界超时调用模型服务。
func (s *adviceService) callModel(ctx context.Context, turns []model.ChatMessage) (string, error) {
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.llmClient.ChatCompletion(cctx, msgs)
}

// failureResult 把模型调用失败映射为用户安全文案，并生成可与日志关联的错误ID。
func (s *adviceService) failureResult(sessionID string, err error) *model.AdviceResult {
	errID := token.GenerateRandomString(4)
	log.Errorf("模型调用失败: session=%s, errorId=%s, err=%v", sessionID, errID, err)

	msg := msgUnknown
	switch {
	case errors.Is(err, llm.ErrTimeout):
		msg = msgTimeout
	case errors.Is(err, llm.ErrAuth):
		msg = msgAuth
	case errors.Is(err, llm.ErrRateLimited):
		msg = msgRateLimited
	case errors.Is(err, llm.ErrServer):
		msg = msgServer
	case errors.Is(err, llm.ErrNetwork):
		msg = msgNetwork
	}

	return &model.AdviceResult{
		Answer:    msg,
		SessionID: sessionID,
		ErrorID:   errID,
	}
}

func (s *adviceService) publishEvent(event tasks.AdviceEvent) {
	if s.publish == nil {
		return
	}
	if err := s.publish(event); err != nil {
		log.Warnf("问答事件投递失败: session=%s, err=%v", event.SessionID, err)
	}
}
