package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-advisor-go/internal/config"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.LLMConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "test-model",
		TimeoutSeconds: 5,
	})
}

const chatReply = `{"choices":[{"message":{"role":"assistant","content":"建议每天喂两次。"}}]}`

func TestChatCompletionAcceptsAny2xx(t *testing.T) {
	statuses := []int{http.StatusOK, http.StatusCreated, http.StatusAccepted}
	for _, status := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(chatReply))
		}))

		client := newTestClient(srv.URL)
		got, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "狗狗一天喂几次？"}})
		srv.Close()

		require.NoError(t, err, "status %d", status)
		assert.Equal(t, "建议每天喂两次。", got)
	}
}

func TestChatCompletionStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
		{http.StatusBadRequest, ErrNetwork},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := newTestClient(srv.URL)
		_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "问题"}})
		srv.Close()

		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	got, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "问题"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}
