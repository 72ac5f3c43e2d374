package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"paw-advisor-go/pkg/kvstore"
)

// brokenStore 模拟计数器后端不可用。
type brokenStore struct{}

var errDown = errors.New("store unavailable")

func (brokenStore) Get(ctx context.Context, key string) (string, error) { return "", errDown }
func (brokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errDown
}
func (brokenStore) Delete(ctx context.Context, key string) error        { return errDown }
func (brokenStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, errDown
}
func (brokenStore) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	return errDown
}
func (brokenStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, errDown
}
func (brokenStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	return errDown
}
func (brokenStore) RemoveFromSet(ctx context.Context, key, member string) error { return errDown }
func (brokenStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	return nil, errDown
}
func (brokenStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errDown
}

func newRateLimitedRouter(store kvstore.Store, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimitMiddleware(store, limit), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func doPing(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	r := newRateLimitedRouter(kvstore.NewMemoryStore(), 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doPing(r))
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	r := newRateLimitedRouter(kvstore.NewMemoryStore(), 2)

	assert.Equal(t, http.StatusOK, doPing(r))
	assert.Equal(t, http.StatusOK, doPing(r))
	assert.Equal(t, http.StatusTooManyRequests, doPing(r))
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	r := newRateLimitedRouter(brokenStore{}, 1)

	// 计数器后端不可用时请求放行
	assert.Equal(t, http.StatusOK, doPing(r))
	assert.Equal(t, http.StatusOK, doPing(r))
}
