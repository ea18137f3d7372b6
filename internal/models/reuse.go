package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReuseType string

const (
	ReuseReused     ReuseType = "REUSED"
	ReuseAvoided    ReuseType = "AVOIDED"
	ReuseReferenced ReuseType = "REFERENCED"
)

func (t ReuseType) Valid() bool {
	return t.CounterColumn() != ""
}

// CounterColumn 该类型对应的失败记录计数列
func (t ReuseType) CounterColumn() string {
	switch t {
	case ReuseReused:
		return "reuse_count"
	case ReuseAvoided:
		return "avoided_count"
	case ReuseReferenced:
		return "reference_count"
	}
	return ""
}

// ReuseRecord 一个用户对一条失败记录的复用声明，(记录, 用户, 类型) 唯一
type ReuseRecord struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	FailureRecordID string        `gorm:"size:36;not null;uniqueIndex:idx_reuse_record_user_type" json:"failureRecordId"`
	FailureRecord   FailureRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID          uint          `gorm:"not null;uniqueIndex:idx_reuse_record_user_type;index" json:"-"`
	User            User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Type            ReuseType     `gorm:"size:20;not null;uniqueIndex:idx_reuse_record_user_type" json:"type"`
	PrivateNotes    *string       `gorm:"type:text" json:"privateNotes"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (r *ReuseRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
