package service

import (
	"context"
	"errors"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/repository"
	"paw-advisor-go/pkg/hash"
	"paw-advisor-go/pkg/token"

	"gorm.io/gorm"
)

// TokenPair 是一次登录签发的访问与刷新令牌。
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(username, password string) (*model.User, error)
	// Login 校验密码后在凭证缓存签发凭证，并生成绑定该凭证的 JWT。
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	GetProfile(username string) (*model.User, error)
	// Logout 吊销 token 绑定的凭证，幂等。
	Logout(ctx context.Context, tokenString string) error
	// LogoutAll 吊销用户名下的全部凭证（例如改密后强制下线）。
	LogoutAll(ctx context.Context, userID uint) error
	RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error)
}

type userService struct {
	userRepo   repository.UserRepository
	creds      repository.CredentialCache
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, creds repository.CredentialCache, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		creds:      creds,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, password string) (*model.User, error) {
	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, errors.New("用户名已存在")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
		Role:     "USER",
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}

	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, errors.New("invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

// issueTokens 签发凭证与绑定它的 JWT 对。凭证 TTL 与 access token 有效期对齐。
func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	credentialID, err := s.creds.Issue(ctx, user.ID, s.jwtManager.AccessTokenDuration())
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role, credentialID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role, credentialID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	return s.userRepo.FindByUsername(username)
}

// Logout 吊销 token 对应的凭证。凭证已失效时同样成功返回。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	return s.creds.Revoke(ctx, claims.CredentialID)
}

// LogoutAll 吊销用户名下全部凭证。
func (s *userService) LogoutAll(ctx context.Context, userID uint) error {
	return s.creds.RevokeAll(ctx, userID)
}

// RefreshToken 验证 refresh token 并签发新的凭证与 token 对，旧凭证随即吊销。
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		return nil, errors.New("user not found")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	// 旧凭证吊销失败不影响新 token 的签发
	_ = s.creds.Revoke(ctx, claims.CredentialID)
	return pair, nil
}
