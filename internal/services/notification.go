package services

import (
	"context"
	"fmt"

	"failarchive/internal/apperr"
	"failarchive/internal/models"

	"gorm.io/gorm"
)

const notificationPageSize = 50

// NotificationService 复用通知的读取与已读标记
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotificationItem 通知及其关联记录标题
type NotificationItem struct {
	models.ReuseNotification
	RecordTitle string `json:"recordTitle"`
}

// List 最近的通知，最新在前
func (s *NotificationService) List(ctx context.Context, userID uint) ([]NotificationItem, error) {
	var notifications []models.ReuseNotification
	err := s.db.WithContext(ctx).
		Preload("FailureRecord", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "title")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(notificationPageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	items := make([]NotificationItem, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, NotificationItem{ReuseNotification: n, RecordTitle: n.FailureRecord.Title})
	}
	return items, nil
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ReuseNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 标记单条通知已读，只能操作自己的通知
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.ReuseNotification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.ReuseNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
