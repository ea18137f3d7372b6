package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModerationStatus string

const (
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationFlagged  ModerationStatus = "FLAGGED"
	ModerationRejected ModerationStatus = "REJECTED"
)

// ModerationRecord 提交时同步写入的审核结果，与失败记录一对一
type ModerationRecord struct {
	ID              string           `gorm:"primaryKey;size:36" json:"id"`
	FailureRecordID string           `gorm:"size:36;not null;uniqueIndex" json:"failureRecordId"`
	Status          ModerationStatus `gorm:"size:20;not null;index" json:"status"`
	Flags           StringList       `json:"flags"`
	AIAnalysis      string           `gorm:"column:ai_analysis;type:text" json:"aiAnalysis"`
	ManualReview    bool             `gorm:"not null;index" json:"manualReview"`
	ReviewerID      *uint            `json:"reviewerId,omitempty"`
	ReviewNote      string           `gorm:"type:text" json:"reviewNote,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (m *ModerationRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
