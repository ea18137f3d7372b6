package models

import (
	"time"
)

// ReuseNotification 通知记录作者有人复用、规避或引用了其记录
type ReuseNotification struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"-"` // Receiver
	User            User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FailureRecordID string        `gorm:"size:36;not null;index" json:"failureRecordId"`
	FailureRecord   FailureRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ReuseType       ReuseType     `gorm:"size:20;not null" json:"reuseType"`
	IsRead          bool          `gorm:"default:false;index" json:"isRead"`
	CreatedAt       time.Time     `json:"createdAt"`
}
