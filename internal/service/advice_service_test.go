package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/repository"
	"paw-advisor-go/pkg/kvstore"
	"paw-advisor-go/pkg/llm"
	"paw-advisor-go/pkg/tasks"
)

// stubLLMClient 返回预设回答并统计调用次数。
type stubLLMClient struct {
	calls int
	reply string
	err   error
}

func (s *stubLLMClient) ChatCompletion(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type adviceFixture struct {
	client  *stubLLMClient
	svc     AdviceService
	conv    repository.ConversationRepository
	cache   repository.ResponseCache
	tracker *SessionTracker
	events  []tasks.AdviceEvent
}

func newAdviceFixture(t *testing.T, client *stubLLMClient, reasoning bool) *adviceFixture {
	t.Helper()
	store := kvstore.NewMemoryStore()
	tracker := NewSessionTracker(24 * time.Hour)
	conv := repository.NewConversationRepository(store, 20, 7*24*time.Hour, tracker)
	cache := repository.NewResponseCache(store, time.Hour, 30*time.Minute)

	f := &adviceFixture{client: client, conv: conv, cache: cache, tracker: tracker}
	f.svc = NewAdviceService(client, conv, cache, tracker,
		func(event tasks.AdviceEvent) error {
			f.events = append(f.events, event)
			return nil
		},
		reasoning, 30*time.Second)
	return f
}

func TestGetAdviceNewSession(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "成年犬建议每天喂两次。"}
	f := newAdviceFixture(t, client, false)

	result := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)

	assert.Equal(t, "成年犬建议每天喂两次。", result.Answer)
	assert.NotEmpty(t, result.SessionID)
	assert.Empty(t, result.ErrorID)
	assert.Equal(t, 1, client.calls)

	// 首轮交换落盘：system + user + assistant
	turns, ok := f.conv.Load(ctx, result.SessionID)
	require.True(t, ok)
	assert.Len(t, turns, 3)

	require.Len(t, f.events, 1)
	assert.False(t, f.events[0].CacheHit)
	assert.Equal(t, uint(1), f.events[0].UserID)
}

func TestGetAdviceCacheHitOnNormalizedRepeat(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "成年犬建议每天喂两次。"}
	f := newAdviceFixture(t, client, false)

	first := f.svc.GetAdvice(ctx, "How often should I feed my dog?", "", nil, 1)
	require.Equal(t, 1, client.calls)

	// 大小写、空白和尾部标点不同的同义问题命中缓存，不再调用模型
	second := f.svc.GetAdvice(ctx, "  how often should I feed my dog ", "", nil, 2)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, first.Answer, second.Answer)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	// 命中回放也初始化了可继续追问的会话
	turns, ok := f.conv.Load(ctx, second.SessionID)
	require.True(t, ok)
	assert.Len(t, turns, 3)

	require.Len(t, f.events, 2)
	assert.True(t, f.events[1].CacheHit)
}

func TestGetAdviceDifferentProfileMissesCache(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "回答"}
	f := newAdviceFixture(t, client, false)

	f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	require.Equal(t, 1, client.calls)

	// 同样的问题但换了宠物档案，指纹不同，不应复用缓存
	pet := &model.PetProfile{Name: "豆豆", Species: "犬", Breed: "柯基", Age: 3}
	f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", pet, 1)
	assert.Equal(t, 2, client.calls)
}

func TestGetAdviceMidConversationBypassesCache(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "回答"}
	f := newAdviceFixture(t, client, false)

	first := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	require.Equal(t, 1, client.calls)

	// 携带会话ID的同文本请求走模型，不查也不写缓存
	f.svc.GetAdvice(ctx, "狗狗一天喂几次？", first.SessionID, nil, 1)
	assert.Equal(t, 2, client.calls)

	stats := f.cache.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGetAdviceCachesOnlyFirstTurn(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "回答"}
	f := newAdviceFixture(t, client, false)

	first := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	f.svc.GetAdvice(ctx, "那幼犬呢？", first.SessionID, nil, 1)
	require.Equal(t, 2, client.calls)

	// 第二轮的问题没有进入缓存：换个新会话问它仍然要调用模型
	f.svc.GetAdvice(ctx, "那幼犬呢？", "", nil, 1)
	assert.Equal(t, 3, client.calls)
}

func TestGetAdviceExtractsReasoning(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "<think>小型犬代谢快，应少量多餐</think>建议每天喂两到三次。"}
	f := newAdviceFixture(t, client, true)

	result := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	assert.Equal(t, "建议每天喂两到三次。", result.Answer)
	assert.Equal(t, "小型犬代谢快，应少量多餐", result.Reasoning)

	// 推理内容随缓存一并回放
	replay := f.svc.GetAdvice(ctx, "  狗狗一天喂几次？ ", "", nil, 2)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, result.Reasoning, replay.Reasoning)
}

func TestGetAdviceReasoningDisabled(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "<think>推理</think>回答"}
	f := newAdviceFixture(t, client, false)

	result := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	// 关闭推理解析时原文原样返回
	assert.Equal(t, "<think>推理</think>回答", result.Answer)
	assert.Empty(t, result.Reasoning)
}

func TestGetAdviceEmptyModelOutput(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "   "}
	f := newAdviceFixture(t, client, false)

	result := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	assert.Equal(t, msgEmptyAnswer, result.Answer)
	assert.NotEmpty(t, result.SessionID)

	// 空输出不落盘也不进缓存
	_, ok := f.conv.Load(ctx, result.SessionID)
	assert.False(t, ok)
	assert.Equal(t, int64(0), f.cache.Stats().Hits)
}

func TestGetAdviceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"超时", fmt.Errorf("call llm: %w", llm.ErrTimeout), msgTimeout},
		{"鉴权失败", fmt.Errorf("call llm: %w", llm.ErrAuth), msgAuth},
		{"被限流", fmt.Errorf("call llm: %w", llm.ErrRateLimited), msgRateLimited},
		{"上游故障", fmt.Errorf("call llm: %w", llm.ErrServer), msgServer},
		{"网络异常", fmt.Errorf("call llm: %w", llm.ErrNetwork), msgNetwork},
		{"未知错误", fmt.Errorf("boom"), msgUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			client := &stubLLMClient{err: tt.err}
			f := newAdviceFixture(t, client, false)

			result := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
			assert.Equal(t, tt.want, result.Answer)
			assert.NotEmpty(t, result.SessionID)
			assert.NotEmpty(t, result.ErrorID)
		})
	}
}

func countSessionLocks(svc AdviceService) int {
	entries := 0
	svc.(*adviceService).sessionLocks.Range(func(_, _ any) bool {
		entries++
		return true
	})
	return entries
}

func TestSessionLocksReleasedWithSessions(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "回答"}
	f := newAdviceFixture(t, client, false)
	current := time.Now()
	f.tracker.SetClock(func() time.Time { return current })

	first := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	f.svc.GetAdvice(ctx, "猫咪可以吃巧克力吗？", "", nil, 1)
	require.Equal(t, 2, countSessionLocks(f.svc))

	// 显式结束会话时释放它的锁条目
	require.NoError(t, f.svc.EndSession(ctx, first.SessionID))
	assert.Equal(t, 1, countSessionLocks(f.svc))

	// 清扫淘汰剩下的会话后锁表应清空，不随会话数无限增长
	current = current.Add(25 * time.Hour)
	require.Equal(t, 1, f.tracker.Sweep())
	assert.Equal(t, 0, f.tracker.Stats().TotalSessions)
	assert.Equal(t, 0, countSessionLocks(f.svc))
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	client := &stubLLMClient{reply: "回答"}
	f := newAdviceFixture(t, client, false)

	result := f.svc.GetAdvice(ctx, "狗狗一天喂几次？", "", nil, 1)
	require.Equal(t, 1, f.tracker.Stats().TotalSessions)

	require.NoError(t, f.svc.EndSession(ctx, result.SessionID))

	_, ok := f.conv.Load(ctx, result.SessionID)
	assert.False(t, ok)
	assert.Equal(t, 0, f.tracker.Stats().TotalSessions)
}
