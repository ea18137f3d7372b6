package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"failarchive/internal/ai"
	"failarchive/internal/apperr"
	"failarchive/internal/models"
	"failarchive/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FlagNeedsManualReview 审核服务不可用时写入的标记
const FlagNeedsManualReview = "AI_ERROR_NEEDS_MANUAL_REVIEW"

var flagCodes = map[string]string{
	"illegalContent": "ILLEGAL_CONTENT",
	"malwareLinks":   "MALWARE_LINK",
	"scamPatterns":   "SCAM_PATTERN",
	"hateHarassment": "HATE_HARASSMENT",
	"plagiarismRisk": "PLAGIARISM_RISK",
	"fakeCitations":  "FAKE_CITATION",
	"spam":           "SPAM",
}

// MapFlag 把模型返回的标记映射为存储代码，未知代码原样保留
func MapFlag(flag string) string {
	if code, ok := flagCodes[flag]; ok {
		return code
	}
	return flag
}

// Admission 审核结论对应的发布状态和审核记录
type Admission struct {
	Status     models.SubmissionStatus
	Moderation models.ModerationRecord
}

// ModerationGate 根据外部审核结论决定提交是发布还是待审
type ModerationGate struct {
	db      *gorm.DB
	ai      ai.Client
	timeout time.Duration
	cache   *utils.Cache
	log     *zap.Logger
	now     func() time.Time
}

func NewModerationGate(db *gorm.DB, client ai.Client, timeout time.Duration, cache *utils.Cache, log *zap.Logger) *ModerationGate {
	return &ModerationGate{db: db, ai: client, timeout: timeout, cache: cache, log: log, now: time.Now}
}

// Admit 纯映射：安全则发布，否则进入待审并要求人工复核。两种情况都保留映射后的标记
func (g *ModerationGate) Admit(v ai.Verdict) Admission {
	flags := make(models.StringList, 0, len(v.Flags))
	for _, f := range v.Flags {
		flags = append(flags, MapFlag(f))
	}

	if v.Safe {
		return Admission{
			Status: models.StatusPublished,
			Moderation: models.ModerationRecord{
				Status:     models.ModerationApproved,
				Flags:      flags,
				AIAnalysis: v.Analysis,
			},
		}
	}
	return Admission{
		Status: models.StatusPendingModeration,
		Moderation: models.ModerationRecord{
			Status:       models.ModerationFlagged,
			Flags:        flags,
			AIAnalysis:   v.Analysis,
			ManualReview: true,
		},
	}
}

// Review 在超时内调用审核服务，任何失败都转为需要人工复核的不安全结论
func (g *ModerationGate) Review(ctx context.Context, in ai.ModerationInput) ai.Verdict {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	v, err := g.ai.Moderate(ctx, in)
	if err != nil {
		g.log.Warn("Moderation unavailable, holding for manual review", zap.String("title", in.Title), zap.Error(err))
		return ai.Verdict{Safe: false, Flags: []string{FlagNeedsManualReview}, Analysis: "automated moderation unavailable"}
	}
	return v
}

// Screen 审核并给出准入结论
func (g *ModerationGate) Screen(ctx context.Context, in ai.ModerationInput) Admission {
	return g.Admit(g.Review(ctx, in))
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// QueueItem 人工审核队列中的一项
type QueueItem struct {
	ID         string                   `json:"id"`
	Title      string                   `json:"title"`
	Type       models.RecordType        `json:"type"`
	Status     models.SubmissionStatus  `json:"status"`
	CreatedAt  time.Time                `json:"createdAt"`
	Moderation *models.ModerationRecord `json:"moderation"`
}

// Queue 待人工审核的记录，最早提交的在前
func (g *ModerationGate) Queue(ctx context.Context, limit int) ([]QueueItem, error) {
	var recs []models.FailureRecord
	err := g.db.WithContext(ctx).
		Preload("Moderation").
		Where("status IN ?", []models.SubmissionStatus{models.StatusPendingModeration, models.StatusUnderReview}).
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("load moderation queue: %w", err)
	}

	items := make([]QueueItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, QueueItem{
			ID:         r.ID,
			Title:      r.Title,
			Type:       r.Type,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
			Moderation: r.Moderation,
		})
	}
	return items, nil
}

// Decide 管理员通过或驳回一条待审记录
func (g *ModerationGate) Decide(ctx context.Context, recordID string, reviewerID uint, decision Decision, note string) (*models.ModerationRecord, error) {
	var (
		status    models.SubmissionStatus
		modStatus models.ModerationStatus
	)
	switch decision {
	case DecisionApprove:
		status, modStatus = models.StatusPublished, models.ModerationApproved
	case DecisionReject:
		status, modStatus = models.StatusRejected, models.ModerationRejected
	default:
		return nil, apperr.Validation("decision must be approve or reject")
	}

	var mod models.ModerationRecord
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FailureRecord{}).
			Where("id = ? AND status IN ?", recordID, []models.SubmissionStatus{models.StatusPendingModeration, models.StatusUnderReview}).
			Update("status", status)
		if res.Error != nil {
			return fmt.Errorf("update record status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("pending submission")
		}

		now := g.now()
		if err := tx.Where("failure_record_id = ?", recordID).First(&mod).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load moderation record: %w", err)
			}
			mod = models.ModerationRecord{FailureRecordID: recordID, Flags: models.StringList{}}
		}
		mod.Status = modStatus
		mod.ManualReview = false
		mod.ReviewerID = &reviewerID
		mod.ReviewNote = strings.TrimSpace(note)
		mod.ReviewedAt = &now
		return tx.Save(&mod).Error
	})
	if err != nil {
		return nil, err
	}
	if status == models.StatusPublished {
		g.cache.DeletePrefix(galleryCachePrefix)
	}
	g.log.Info("Moderation decision recorded",
		zap.String("record_id", recordID), zap.String("decision", string(decision)), zap.Uint("reviewer_id", reviewerID))
	return &mod, nil
}
