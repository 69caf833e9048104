// Package auth 提供认证与账户服务
package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/crypto"
	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/jwt"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 8

// AuthService 认证服务
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *jwt.Manager
	bcryptCost int
	now        func() time.Time
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, jwtManager *jwt.Manager, bcryptCost int) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// LoginRequest 登录请求，Identifier 可以是邮箱或手机号
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User  *UserInfo      `json:"user"`
	Token *jwt.TokenPair `json:"token"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Login 邮箱或手机号 + 密码登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.findByIdentifier(ctx, req.Identifier)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, errors.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, errors.ErrAccountDisabled
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	user.LastLoginAt = &now

	return &LoginResponse{User: ToUserInfo(user), Token: tokenPair}, nil
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.userRepo.GetByEmail(ctx, strings.ToLower(identifier))
	}
	return s.userRepo.GetByPhone(ctx, utils.NormalizePhone(identifier))
}

// RefreshToken 刷新令牌
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ParseToken(refreshToken)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, errors.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !user.IsActive() {
		return nil, errors.ErrAccountDisabled
	}

	pair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, errors.ErrTokenRefreshFail.WithError(err)
	}
	return pair, nil
}

// GetProfile 获取当前用户资料
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserInfo(user), nil
}

// UpdateProfile 更新当前用户资料
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*UserInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.ErrInvalidParams.WithMessage("Name is required")
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		phone := utils.NormalizePhone(*req.Phone)
		if phone == "" {
			updates["phone"] = nil
		} else {
			if !utils.ValidatePhone(phone) {
				return nil, errors.ErrInvalidParams.WithMessage("Invalid phone number")
			}
			exists, err := s.userRepo.ExistsByPhone(ctx, phone, userID)
			if err != nil {
				return nil, errors.ErrDatabaseError.WithError(err)
			}
			if exists {
				return nil, errors.ErrPhoneExists
			}
			updates["phone"] = phone
		}
	}

	if len(updates) > 0 {
		if err := s.userRepo.UpdateFields(ctx, user.ID, updates); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return errors.ErrPasswordIncorrect
	}
	if len(req.NewPassword) < MinPasswordLength {
		return errors.ErrPasswordTooShort
	}

	hash, err := crypto.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// EnsureAdmin 若不存在管理员则按给定账号创建，返回是否新建
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	count, err := s.userRepo.CountByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 || email == "" || password == "" {
		return false, nil
	}

	hash, err := crypto.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, errors.ErrInternalError.WithError(err)
	}
	admin := &models.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return false, errors.ErrEmailExists
		}
		return false, errors.ErrDatabaseError.WithError(err)
	}
	return true, nil
}

func (s *AuthService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

// ToUserInfo 转换为用户信息
func ToUserInfo(user *models.User) *UserInfo {
	if user == nil {
		return nil
	}
	return &UserInfo{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		Role:        user.Role,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
