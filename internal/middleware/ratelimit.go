package middleware

import (
	"fmt"
	"net/http"
	"time"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/pkg/kvstore"
	"paw-advisor-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 基于过期后端的计数器实现固定窗口限流（每分钟一个窗口）。
// 已登录请求按用户计数，匿名请求按客户端 IP 计数。
// 后端不可用时放行：限流是保护措施，不能成为单点故障。
func RateLimitMiddleware(store kvstore.Store, requestsPerMinute int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return func(c *gin.Context) {
		subject := c.ClientIP()
		if v, exists := c.Get("user"); exists {
			if user, ok := v.(*model.User); ok {
				subject = fmt.Sprintf("user:%d", user.ID)
			}
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ratelimit:%s:%d", subject, window)

		count, err := store.Incr(c.Request.Context(), key, time.Minute)
		if err != nil {
			log.Warnf("限流计数器不可用，放行请求: subject=%s, err=%v", subject, err)
			c.Next()
			return
		}

		if count > int64(requestsPerMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁，请稍后重试"})
			return
		}
		c.Next()
	}
}
