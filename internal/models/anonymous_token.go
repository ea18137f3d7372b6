package models

import (
	"time"
)

// AnonymousToken 一次性匿名提交令牌
type AnonymousToken struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"-"`
}

// Expired uses a strict comparison: a token expiring exactly at now is still valid.
func (t *AnonymousToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
