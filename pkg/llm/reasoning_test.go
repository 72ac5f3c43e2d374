package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReasoning(t *testing.T) {
	cases := []struct {
		name          string
		raw           string
		wantAnswer    string
		wantReasoning string
	}{
		{
			name:          "标准推理段",
			raw:           "<think>先判断犬龄</think>成年犬一天喂两次即可。",
			wantAnswer:    "成年犬一天喂两次即可。",
			wantReasoning: "先判断犬龄",
		},
		{
			name:          "推理段夹在答案中间",
			raw:           "A<think>B</think>C",
			wantAnswer:    "AC",
			wantReasoning: "B",
		},
		{
			name:          "推理段内容去空白",
			raw:           "<think>\n  step one\n</think>\nanswer",
			wantAnswer:    "answer",
			wantReasoning: "step one",
		},
		{
			name:          "无定界符",
			raw:           "plain answer without tags",
			wantAnswer:    "plain answer without tags",
			wantReasoning: "",
		},
		{
			name:          "只有起始定界符",
			raw:           "<think>unterminated reasoning",
			wantAnswer:    "<think>unterminated reasoning",
			wantReasoning: "",
		},
		{
			name:          "只有结束定界符",
			raw:           "orphan</think> answer",
			wantAnswer:    "orphan</think> answer",
			wantReasoning: "",
		},
		{
			name:          "结束定界符在起始之前",
			raw:           "</think>x<think>y",
			wantAnswer:    "</think>x<think>y",
			wantReasoning: "",
		},
		{
			name:          "空输入",
			raw:           "",
			wantAnswer:    "",
			wantReasoning: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answer, reasoning := ExtractReasoning(tc.raw)
			assert.Equal(t, tc.wantAnswer, answer)
			assert.Equal(t, tc.wantReasoning, reasoning)
		})
	}
}

func TestExtractReasoningTakesFirstSpan(t *testing.T) {
	answer, reasoning := ExtractReasoning("<think>one</think>mid<think>two</think>tail")
	assert.Equal(t, "one", reasoning)
	// 第二个片段不再解析，保留在答案中
	assert.Equal(t, "mid<think>two</think>tail", answer)
}
