package handler

import (
	"net/http"
	"strconv"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/service"

	"github.com/gin-gonic/gin"
)

// PetHandler 处理宠物档案相关的 API 请求。
type PetHandler struct {
	petService service.PetService
}

// NewPetHandler 创建一个新的 PetHandler 实例。
func NewPetHandler(petService service.PetService) *PetHandler {
	return &PetHandler{petService: petService}
}

// PetRequest 定义了创建与更新宠物档案的请求体结构。
type PetRequest struct {
	Name    string `json:"name" binding:"required"`
	Species string `json:"species" binding:"required"`
	Breed   string `json:"breed"`
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
}

func petIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("petId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的宠物ID"})
		return 0, false
	}
	return uint(id), true
}

// Create 创建宠物档案。
func (h *PetHandler) Create(c *gin.Context) {
	var req PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name 和 species 不能为空"})
		return
	}
	user := c.MustGet("user").(*model.User)

	pet := &model.PetProfile{
		Name:    req.Name,
		Species: req.Species,
		Breed:   req.Breed,
		Age:     req.Age,
		Gender:  req.Gender,
	}
	if err := h.petService.Create(user.ID, pet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建宠物档案失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": pet})
}

// List 列出当前用户的全部宠物档案。
func (h *PetHandler) List(c *gin.Context) {
	user := c.MustGet("user").(*model.User)
	pets, err := h.petService.List(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取宠物档案失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": pets})
}

// Get 返回单个宠物档案。
func (h *PetHandler) Get(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	user := c.MustGet("user").(*model.User)
	pet, err := h.petService.Get(user.ID, petID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "宠物档案不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": pet})
}

// Update 更新宠物档案。
func (h *PetHandler) Update(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	var req PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name 和 species 不能为空"})
		return
	}
	user := c.MustGet("user").(*model.User)

	pet := &model.PetProfile{
		ID:      petID,
		Name:    req.Name,
		Species: req.Species,
		Breed:   req.Breed,
		Age:     req.Age,
		Gender:  req.Gender,
	}
	if err := h.petService.Update(user.ID, pet); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "宠物档案不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": pet})
}

// Delete 删除宠物档案。
func (h *PetHandler) Delete(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	user := c.MustGet("user").(*model.User)
	if err := h.petService.Delete(user.ID, petID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "宠物档案不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}
