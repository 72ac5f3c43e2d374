package llm

import "strings"

// 推理段的定界符，推理型模型会把思考过程包在这对标签里。
const (
	thinkStart = "<think>"
	thinkEnd   = "</think>"
)

// ExtractReasoning 从模型原始输出中切分出推理段与用户可见答案。
// 取第一个 <think> 与其后第一个 </think> 之间的内容为推理段（去首尾空白），
// 答案为去掉整个定界片段后的剩余文本。定界符缺失或顺序颠倒时，
// 原样返回整个输出作为答案，推理段为空串。
func ExtractReasoning(raw string) (answer, reasoning string) {
	start := strings.Index(raw, thinkStart)
	if start < 0 {
		return raw, ""
	}
	rest := raw[start+len(thinkStart):]
	end := strings.Index(rest, thinkEnd)
	if end < 0 {
		return raw, ""
	}
	reasoning = strings.TrimSpace(rest[:end])
	answer = strings.TrimSpace(raw[:start] + rest[end+len(thinkEnd):])
	return answer, reasoning
}
