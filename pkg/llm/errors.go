package llm

import "errors"

// 模型服务调用失败的错误分类。
// Orchestrator 在边界处把这些错误映射为对用户安全的文案，
// 原始错误细节只进日志。
var (
	ErrNetwork     = errors.New("llm: network error")
	ErrTimeout     = errors.New("llm: request timed out")
	ErrAuth        = errors.New("llm: api credential rejected")
	ErrRateLimited = errors.New("llm: rate limited")
	ErrServer      = errors.New("llm: upstream server error")
)
