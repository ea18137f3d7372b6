package services

import (
	"context"
	"errors"
	"fmt"

	"failarchive/internal/apperr"
	"failarchive/internal/models"
	"failarchive/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReuseLedger 记录复用声明并维护失败记录上的计数
type ReuseLedger struct {
	db    *gorm.DB
	cache *utils.Cache
}

func NewReuseLedger(db *gorm.DB, cache *utils.Cache) *ReuseLedger {
	return &ReuseLedger{db: db, cache: cache}
}

// Declare 声明复用。(记录, 用户, 类型) 首次写入时计数加一并通知作者，重复声明只更新备注
func (l *ReuseLedger) Declare(ctx context.Context, recordID string, userID uint, typ models.ReuseType, notes *string) (*models.ReuseRecord, error) {
	if recordID == "" {
		return nil, apperr.Validation("failureRecordId is required")
	}
	if !typ.Valid() {
		return nil, apperr.Validation("reuse type %q is not valid", typ)
	}

	var (
		result   models.ReuseRecord
		inserted bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.FailureRecord
		if err := tx.Select("id", "user_id").Where("id = ?", recordID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("failure record")
			}
			return fmt.Errorf("load failure record: %w", err)
		}

		candidate := models.ReuseRecord{
			FailureRecordID: recordID,
			UserID:          userID,
			Type:            typ,
			PrivateNotes:    notes,
		}
		res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "failure_record_id"}, {Name: "user_id"}, {Name: "type"}},
			DoNothing: true,
		}).Create(&candidate)
		if res.Error != nil {
			return fmt.Errorf("insert reuse record: %w", res.Error)
		}

		if res.RowsAffected == 1 {
			col := typ.CounterColumn()
			if err := tx.Model(&models.FailureRecord{}).
				Where("id = ?", recordID).
				UpdateColumn(col, gorm.Expr(col+" + ?", 1)).
				Error; err != nil {
				return fmt.Errorf("increment %s: %w", col, err)
			}

			if rec.UserID != nil && *rec.UserID != userID {
				n := models.ReuseNotification{
					UserID:          *rec.UserID,
					FailureRecordID: recordID,
					ReuseType:       typ,
				}
				if err := tx.Omit(clause.Associations).Create(&n).Error; err != nil {
					return fmt.Errorf("create reuse notification: %w", err)
				}
			}
			result = candidate
			inserted = true
			return nil
		}

		key := tx.Model(&models.ReuseRecord{}).
			Where("failure_record_id = ? AND user_id = ? AND type = ?", recordID, userID, typ)
		if err := key.UpdateColumn("private_notes", notes).Error; err != nil {
			return fmt.Errorf("update reuse notes: %w", err)
		}
		return tx.Where("failure_record_id = ? AND user_id = ? AND type = ?", recordID, userID, typ).
			First(&result).Error
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		// 计数变化影响画廊排序
		l.cache.DeletePrefix(galleryCachePrefix)
	}
	return &result, nil
}

// RecordSummary 复用历史中附带的记录摘要
type RecordSummary struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Category models.RecordType `json:"category"`
	Domain   models.StringList `json:"domain"`
}

type ReuseHistoryItem struct {
	models.ReuseRecord
	Record RecordSummary `json:"failureRecord"`
}

// ListForUser 用户的复用历史，最新在前
func (l *ReuseLedger) ListForUser(ctx context.Context, userID uint) ([]ReuseHistoryItem, error) {
	var reuses []models.ReuseRecord
	err := l.db.WithContext(ctx).
		Preload("FailureRecord", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "title", "type", "domain")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id").
		Find(&reuses).Error
	if err != nil {
		return nil, fmt.Errorf("list reuses: %w", err)
	}

	items := make([]ReuseHistoryItem, 0, len(reuses))
	for _, r := range reuses {
		items = append(items, ReuseHistoryItem{
			ReuseRecord: r,
			Record: RecordSummary{
				ID:       r.FailureRecord.ID,
				Title:    r.FailureRecord.Title,
				Category: r.FailureRecord.Type,
				Domain:   r.FailureRecord.Domain,
			},
		})
	}
	return items, nil
}
