// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/repository"
	"paw-advisor-go/pkg/log"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint            `json:"userId"`
	Username  string          `json:"username"`
	Role      string          `json:"role"`
	PetCount  int64           `json:"petCount"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// ErrInvalidRole 表示请求中的角色不在允许的取值范围内。
var ErrInvalidRole = errors.New("无效的用户角色")

// AdminService 接口定义了管理员侧的用户管理操作。
type AdminService interface {
	// ListUsers 以分页的形式返回用户列表，附带每个用户的宠物档案数量。
	ListUsers(page, size int) (*UserListResponse, error)
	// UpdateUserRole 变更用户角色，只接受 USER 和 ADMIN。
	UpdateUserRole(userID uint, role string) error
	// RemoveUser 删除用户及其宠物档案，并吊销其全部有效凭证。
	RemoveUser(ctx context.Context, userID uint) error
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo  repository.UserRepository
	petRepo   repository.PetRepository
	credCache repository.CredentialCache
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, petRepo repository.PetRepository, credCache repository.CredentialCache) AdminService {
	return &adminService{
		userRepo:  userRepo,
		petRepo:   petRepo,
		credCache: credCache,
	}
}

// ListUsers 以分页的形式返回用户列表
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	offset := (page - 1) * size
	users, total, err := s.userRepo.FindWithPagination(offset, size)
	if err != nil {
		return nil, err
	}

	userResponses := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		petCount, err := s.petRepo.CountByOwner(u.ID)
		if err != nil {
			// 统计失败不阻断列表返回
			log.Warnf("统计用户宠物数量失败: user=%d, err=%v", u.ID, err)
		}
		userResponses = append(userResponses, UserDetailResponse{
			UserID:    u.ID,
			Username:  u.Username,
			Role:      u.Role,
			PetCount:  petCount,
			CreatedAt: model.LocalTime(u.CreatedAt),
		})
	}

	totalPages := 0
	if total > 0 && size > 0 {
		totalPages = (int(total) + size - 1) / size
	}

	return &UserListResponse{
		Content:       userResponses,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}, nil
}

// UpdateUserRole 变更用户角色。
func (s *adminService) UpdateUserRole(userID uint, role string) error {
	if role != "USER" && role != "ADMIN" {
		return ErrInvalidRole
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("用户不存在")
		}
		return err
	}
	user.Role = role
	return s.userRepo.Update(user)
}

// RemoveUser 删除用户及其名下数据。先吊销凭证再删数据，
// 保证删除过程中该用户的旧 token 已经失效。
func (s *adminService) RemoveUser(ctx context.Context, userID uint) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("用户不存在")
		}
		return err
	}

	if err := s.credCache.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user credentials: %w", err)
	}
	if err := s.petRepo.DeleteByOwner(userID); err != nil {
		return fmt.Errorf("failed to delete user pets: %w", err)
	}
	return s.userRepo.Delete(userID)
}
