package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"小写化", "How Often Should I Feed My Dog?", "how often should i feed my dog"},
		{"去首尾空白", "   feed my dog   ", "feed my dog"},
		{"压缩内部空白", "feed\tmy\n  dog", "feed my dog"},
		{"去标点", "feed my dog?.,!", "feed my dog"},
		{"空串", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	base := Fingerprint("How often should I feed my dog?", "")

	variants := []string{
		"how often should i feed my dog",
		"  How often should I feed my dog  ",
		"How often should I feed my dog",
		"HOW OFTEN SHOULD I FEED MY DOG!",
	}
	for _, v := range variants {
		assert.Equal(t, base, Fingerprint(v, ""), "variant: %q", v)
	}
}

func TestFingerprintLengthAndDistinctness(t *testing.T) {
	fp := Fingerprint("how often should i feed my dog", "")
	require.Len(t, fp, Length)

	// 不同问题、不同档案都应得到不同指纹
	assert.NotEqual(t, fp, Fingerprint("how often should i feed my cat", ""))
	assert.NotEqual(t, fp, Fingerprint("how often should i feed my dog", "dog golden-retriever 3 male"))
}
