package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"failarchive/internal/apperr"
	"failarchive/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errInvalidToken = apperr.Authentication("invalid or expired anonymous token")

// TokenService 签发和校验一次性匿名提交令牌
type TokenService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewTokenService(db *gorm.DB, ttl time.Duration) *TokenService {
	return &TokenService{db: db, ttl: ttl, now: time.Now}
}

// Issue 签发新令牌
func (s *TokenService) Issue(ctx context.Context) (*models.AnonymousToken, error) {
	tok := &models.AnonymousToken{
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(tok).Error; err != nil {
		return nil, fmt.Errorf("create anonymous token: %w", err)
	}
	return tok, nil
}

// Validate 查找令牌，缺失、未知、过期或已使用都返回认证错误
func (s *TokenService) Validate(ctx context.Context, token string) (*models.AnonymousToken, error) {
	return s.validate(s.db.WithContext(ctx), token)
}

func (s *TokenService) validate(tx *gorm.DB, token string) (*models.AnonymousToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Authentication("authentication required")
	}

	var tok models.AnonymousToken
	if err := tx.Where("token = ?", token).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidToken
		}
		return nil, fmt.Errorf("load anonymous token: %w", err)
	}
	if tok.Expired(s.now()) || tok.UsedAt != nil {
		return nil, errInvalidToken
	}
	return &tok, nil
}

// Consume 在调用方事务内校验并标记令牌已使用，并发提交只有一个能成功
func (s *TokenService) Consume(tx *gorm.DB, token string) (*models.AnonymousToken, error) {
	tok, err := s.validate(tx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := tx.Model(&models.AnonymousToken{}).
		Where("id = ? AND used_at IS NULL", tok.ID).
		UpdateColumn("used_at", now)
	if res.Error != nil {
		return nil, fmt.Errorf("consume anonymous token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errInvalidToken
	}
	tok.UsedAt = &now
	return tok, nil
}
