package handler

import (
	"net/http"

	"paw-advisor-go/pkg/database"

	"github.com/gin-gonic/gin"
)

// HealthHandler 处理健康检查请求。
type HealthHandler struct{}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check 探测 Redis 与 MySQL 连接，任一不可达时返回 503。
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	components := gin.H{"redis": "up", "mysql": "up"}

	if err := database.RDB.Ping(c.Request.Context()).Err(); err != nil {
		components["redis"] = "down"
		status = http.StatusServiceUnavailable
	}
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		components["mysql"] = "down"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"status": components})
}
