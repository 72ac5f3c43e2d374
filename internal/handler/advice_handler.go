// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strings"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/repository"
	"paw-advisor-go/internal/service"
	"paw-advisor-go/pkg/log"
	"paw-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// maxMessageLen 是单条问题的长度上限（按 rune 计）。
const maxMessageLen = 2000

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// AdviceHandler 处理问答相关的 API 请求。
type AdviceHandler struct {
	adviceService service.AdviceService
	petService    service.PetService
	userService   service.UserService
	creds         repository.CredentialCache
	jwtManager    *token.JWTManager
}

// NewAdviceHandler 创建一个新的 AdviceHandler。
func NewAdviceHandler(
	adviceService service.AdviceService,
	petService service.PetService,
	userService service.UserService,
	creds repository.CredentialCache,
	jwtManager *token.JWTManager,
) *AdviceHandler {
	return &AdviceHandler{
		adviceService: adviceService,
		petService:    petService,
		userService:   userService,
		creds:         creds,
		jwtManager:    jwtManager,
	}
}

// AdviceRequest 定义了问答 API 的请求体结构。
type AdviceRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId"`
	PetID     uint   `json:"petId"`
}

// sanitizeMessage 对进入编排器前的用户输入做清理：去首尾空白、裁剪超长内容。
func sanitizeMessage(message string) string {
	message = strings.TrimSpace(message)
	if runes := []rune(message); len(runes) > maxMessageLen {
		message = string(runes[:maxMessageLen])
	}
	return message
}

// GetAdvice 处理一轮问答请求。
func (h *AdviceHandler) GetAdvice(c *gin.Context) {
	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：message 不能为空"})
		return
	}

	message := sanitizeMessage(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message 不能为空"})
		return
	}

	user := c.MustGet("user").(*model.User)

	var pet *model.PetProfile
	if req.PetID != 0 {
		p, err := h.petService.Get(user.ID, req.PetID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "宠物档案不存在"})
			return
		}
		pet = p
	}

	result := h.adviceService.GetAdvice(c.Request.Context(), message, req.SessionID, pet, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    result,
	})
}

// EndSession 显式结束一个会话。
func (h *AdviceHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId 不能为空"})
		return
	}
	if err := h.adviceService.EndSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "结束会话失败",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}

// HandleWS 处理一个传入的 WebSocket 连接，在同一连接上进行多轮问答。
// token 经由路径传入，浏览器 WebSocket API 无法设置 Authorization 头。
func (h *AdviceHandler) HandleWS(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil || !h.creds.IsValid(c.Request.Context(), claims.CredentialID) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	user, err := h.userService.GetProfile(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)

	// 同一连接上连续的问答默认续用上一轮的会话
	sessionID := ""
	for {
		var req AdviceRequest
		if err := conn.ReadJSON(&req); err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		message := sanitizeMessage(req.Message)
		if message == "" {
			_ = conn.WriteJSON(gin.H{"error": "message 不能为空"})
			continue
		}
		if req.SessionID != "" {
			sessionID = req.SessionID
		}

		var pet *model.PetProfile
		if req.PetID != 0 {
			if p, perr := h.petService.Get(user.ID, req.PetID); perr == nil {
				pet = p
			}
		}

		result := h.adviceService.GetAdvice(c.Request.Context(), message, sessionID, pet, user.ID)
		sessionID = result.SessionID
		if err := conn.WriteJSON(result); err != nil {
			log.Warnf("向 WebSocket 写入响应失败: %v", err)
			break
		}
	}
}
