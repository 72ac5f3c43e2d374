package handler

import (
	"errors"
	"net/http"
	"strconv"

	"paw-advisor-go/internal/repository"
	"paw-advisor-go/internal/service"
	"paw-advisor-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdminHandler 处理维护与运维相关的 API 请求。
type AdminHandler struct {
	respCache  repository.ResponseCache
	tracker    *service.SessionTracker
	recordRepo repository.AdviceRecordRepository
	adminSvc   service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(respCache repository.ResponseCache, tracker *service.SessionTracker, recordRepo repository.AdviceRecordRepository, adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{
		respCache:  respCache,
		tracker:    tracker,
		recordRepo: recordRepo,
		adminSvc:   adminSvc,
	}
}

// GetCacheStats 返回响应缓存的命中统计。
func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    h.respCache.Stats(),
	})
}

// ClearCache 清空响应缓存并重置计数器。仅维护路径使用，问答链路从不调用。
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.respCache.Clear(c.Request.Context()); err != nil {
		log.Error("清空响应缓存失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "清空缓存失败",
			"data":    nil,
		})
		return
	}
	log.Info("响应缓存已清空")
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}

// GetSessionStats 返回会话活跃度统计。
func (h *AdminHandler) GetSessionStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    h.tracker.Stats(),
	})
}

// ListAdviceRecords 分页返回某用户的问答记录。
func (h *AdminHandler) ListAdviceRecords(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	records, total, err := h.recordRepo.FindByUser(uint(userID), (page-1)*size, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取问答记录失败",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"records": records, "total": total, "page": page, "size": size},
	})
}

// ListUsers 分页返回用户列表。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	resp, err := h.adminSvc.ListUsers(page, size)
	if err != nil {
		log.Error("获取用户列表失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取用户列表失败",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": resp})
}

// UpdateUserRole 变更用户角色。
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	if err := h.adminSvc.UpdateUserRole(uint(userID), req.Role); err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("变更用户角色失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "变更用户角色失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}

// DeleteUser 删除用户及其名下数据，并吊销其全部凭证。
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	if err := h.adminSvc.RemoveUser(c.Request.Context(), uint(userID)); err != nil {
		log.Error("删除用户失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除用户失败"})
		return
	}
	log.Infof("管理员删除用户: user=%d", userID)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}
