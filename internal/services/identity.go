package services

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"failarchive/internal/apperr"
	"failarchive/internal/models"
)

// Identity 根据署名模式计算出的存储字段
type Identity struct {
	UserID          *uint
	PseudonymousID  *string
	AttributionDate *time.Time
}

// IdentityResolver 把提交时选择的署名模式转换为存储字段
type IdentityResolver struct {
	now       func() time.Time
	pseudonym func(now time.Time) string
}

func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{now: time.Now, pseudonym: GeneratePseudonymousID}
}

// Resolve 计算署名字段。除 ANONYMOUS 外都需要非空的署名名称
func (r *IdentityResolver) Resolve(mode models.IdentityMode, userID *uint, attributionName string) (Identity, error) {
	if !mode.Valid() {
		return Identity{}, apperr.Validation("identityMode %q is not valid", mode)
	}
	if mode == models.IdentityAnonymous {
		return Identity{}, nil
	}
	if strings.TrimSpace(attributionName) == "" {
		return Identity{}, apperr.Validation("attribution name is required for this identity mode")
	}

	now := r.now()
	id := Identity{UserID: userID}
	if mode == models.IdentityPseudonymous || mode.Delayed() {
		p := r.pseudonym(now)
		id.PseudonymousID = &p
	}
	if days := mode.DelayDays(); days > 0 {
		reveal := now.AddDate(0, 0, days)
		id.AttributionDate = &reveal
	}
	return id, nil
}

// GeneratePseudonymousID 生成 FA-<数字> 形式的化名，不保证唯一
func GeneratePseudonymousID(now time.Time) string {
	return fmt.Sprintf("FA-%d", now.UnixMilli()%100000+rand.Int64N(10000))
}
