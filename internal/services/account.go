package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"failarchive/internal/apperr"
	"failarchive/internal/models"
	"failarchive/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// AccountService 本地账号注册与登录
type AccountService struct {
	db          *gorm.DB
	adminEmails []string
	log         *zap.Logger
}

func NewAccountService(db *gorm.DB, adminEmails []string, log *zap.Logger) *AccountService {
	return &AccountService{db: db, adminEmails: adminEmails, log: log}
}

// Register 创建新用户，用户名取邮箱前缀，头像随机
func (s *AccountService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, apperr.Validation("email is not valid")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username: email[:strings.Index(email, "@")],
		Email:    email,
		Password: hash,
		Avatar:   utils.GetRandomEmoji(),
		Role:     models.RoleUser,
	}
	if slices.Contains(s.adminEmails, email) {
		user.Role = models.RoleAdmin
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return nil, apperr.Validation("email is already registered")
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return &user, nil
}

// Login 校验邮箱和密码，失败统一返回认证错误
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Authentication("invalid email or password")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperr.Authentication("invalid email or password")
	}
	return &user, nil
}

// FindByID 会话中的用户，不存在时返回 NotFound
func (s *AccountService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}
