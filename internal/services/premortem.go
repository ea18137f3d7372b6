package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"failarchive/internal/ai"
	"failarchive/internal/apperr"
	"failarchive/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const relatedFailureLimit = 10

// DegradedPreMortem 模型不可用时返回的默认分析
func DegradedPreMortem() ai.PreMortem {
	return ai.PreMortem{
		CommonPatterns:           []string{},
		LikelyInvalidAssumptions: []string{},
		RiskLevel:                "MEDIUM",
		Recommendations:          []string{"AI analysis unavailable. Please review manually."},
	}
}

type PreMortemRequest struct {
	Idea       string   `json:"idea"`
	Domain     []string `json:"domain"`
	Hypothesis string   `json:"hypothesis"`
}

// RelatedFailure 相关历史失败摘要
type RelatedFailure struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Hypothesis    string               `json:"hypothesis"`
	FailurePoints models.StringList    `json:"failurePoints"`
	Domain        models.StringList    `json:"domain"`
	EvidenceLevel models.EvidenceLevel `json:"evidenceLevel"`
	ReuseCount    int                  `json:"reuseCount"`
}

type PreMortemResult struct {
	RelatedFailures          []string         `json:"relatedFailures"`
	FailureDetails           []RelatedFailure `json:"failureDetails"`
	CommonPatterns           []string         `json:"commonPatterns"`
	LikelyInvalidAssumptions []string         `json:"likelyInvalidAssumptions"`
	RiskLevel                string           `json:"riskLevel"`
	Recommendations          []string         `json:"recommendations"`
}

// PreMortemService 为尚未开始的想法给出风险分析和相关失败记录
type PreMortemService struct {
	db      *gorm.DB
	ai      ai.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewPreMortemService(db *gorm.DB, client ai.Client, timeout time.Duration, log *zap.Logger) *PreMortemService {
	return &PreMortemService{db: db, ai: client, timeout: timeout, log: log}
}

// Analyze 模型失败时返回降级结果而不是错误。相关记录仅按领域交集匹配
func (s *PreMortemService) Analyze(ctx context.Context, req PreMortemRequest) (*PreMortemResult, error) {
	req.Idea = strings.TrimSpace(req.Idea)
	if req.Idea == "" {
		return nil, apperr.Validation("idea description is required")
	}
	domains := []string(cleanList(req.Domain))

	analysis := s.analyze(ctx, ai.PreMortemInput{Idea: req.Idea, Domain: domains, Hypothesis: req.Hypothesis})

	var related []RelatedFailure
	q := s.db.WithContext(ctx).Model(&models.FailureRecord{}).
		Where("status = ?", models.StatusPublished)
	err := whereDomainOverlap(q, domains).
		Order("reuse_count DESC").
		Order("created_at DESC").
		Limit(relatedFailureLimit).
		Find(&related).Error
	if err != nil {
		return nil, fmt.Errorf("load related failures: %w", err)
	}

	ids := make([]string, 0, len(related))
	for _, r := range related {
		ids = append(ids, r.ID)
	}
	return &PreMortemResult{
		RelatedFailures:          ids,
		FailureDetails:           related,
		CommonPatterns:           nonNil(analysis.CommonPatterns),
		LikelyInvalidAssumptions: nonNil(analysis.LikelyInvalidAssumptions),
		RiskLevel:                analysis.RiskLevel,
		Recommendations:          nonNil(analysis.Recommendations),
	}, nil
}

func (s *PreMortemService) analyze(ctx context.Context, in ai.PreMortemInput) ai.PreMortem {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.ai.PreMortem(ctx, in)
	if err != nil {
		s.log.Warn("Pre-mortem analysis unavailable, returning default", zap.Error(err))
		return DegradedPreMortem()
	}
	out.RiskLevel = ai.NormalizeRiskLevel(out.RiskLevel)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
