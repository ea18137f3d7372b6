package services

import (
	"time"

	"failarchive/internal/models"
)

type AuthorKind string

const (
	AuthorUser      AuthorKind = "user"
	AuthorPseudonym AuthorKind = "pseudonym"
)

// AuthorView 读者可见的作者信息
type AuthorView struct {
	Kind           AuthorKind `json:"kind"`
	UserID         *uint      `json:"userId,omitempty"`
	Name           string     `json:"name"`
	Avatar         string     `json:"avatar,omitempty"`
	PseudonymousID string     `json:"pseudonymousId,omitempty"`
}

// ProjectAuthorFields 根据署名模式和当前时间决定是否暴露作者，纯函数，不修改记录。
// 返回 nil 表示不展示作者
func ProjectAuthorFields(rec *models.FailureRecord, owner *models.User, now time.Time) *AuthorView {
	switch rec.IdentityMode {
	case models.IdentityAnonymous:
		return nil
	case models.IdentityPseudonymous:
		if rec.PseudonymousID == nil {
			return nil
		}
		return &AuthorView{Kind: AuthorPseudonym, Name: *rec.PseudonymousID, PseudonymousID: *rec.PseudonymousID}
	case models.IdentityDelayed30, models.IdentityDelayed90, models.IdentityDelayed180:
		if rec.AttributionDate != nil && rec.AttributionDate.After(now) {
			return nil
		}
		return userView(rec, owner)
	case models.IdentityAttributed:
		return userView(rec, owner)
	}
	return nil
}

func userView(rec *models.FailureRecord, owner *models.User) *AuthorView {
	if owner == nil || rec.UserID == nil || owner.ID != *rec.UserID {
		return nil
	}
	p := owner.PublicProfile()
	return &AuthorView{Kind: AuthorUser, UserID: &p.ID, Name: p.Name, Avatar: p.Avatar}
}
