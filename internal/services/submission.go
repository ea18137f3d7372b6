package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"math"
	"regexp"
	"strings"
	"time"

	"failarchive/internal/ai"
	"failarchive/internal/apperr"
	"failarchive/internal/models"
	"failarchive/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	galleryCachePrefix = "gallery:"
	galleryCacheTTL    = time.Minute

	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var githubPattern = regexp.MustCompile(`^https?://(www\.)?github\.com/[\w-]+/[\w.-]+/?$`)

// sortColumns 列表允许的排序字段
var sortColumns = map[string]string{
	"createdAt":      "created_at",
	"reuseCount":     "reuse_count",
	"referenceCount": "reference_count",
	"avoidedCount":   "avoided_count",
	"evidenceScore":  "evidence_score",
}

// SubmissionInput 提交表单
type SubmissionInput struct {
	Type            models.RecordType   `json:"type"`
	IdentityMode    models.IdentityMode `json:"identityMode"`
	AttributionName string              `json:"attributionName"`
	AnonymousToken  string              `json:"anonymousToken"`
	LicenseAccepted bool                `json:"licenseAccepted"`

	Title                string                `json:"title"`
	Hypothesis           string                `json:"hypothesis"`
	Method               string                `json:"method"`
	FailurePoints        []models.FailurePoint `json:"failurePoints"`
	KeyMisunderstanding  string                `json:"keyMisunderstanding"`
	SalvageableKnowledge string                `json:"salvageableKnowledge"`

	EvidenceLevel models.EvidenceLevel `json:"evidenceLevel"`
	GithubLink    string               `json:"githubLink"`
	PDFURL        string               `json:"pdfUrl"`
	Metrics       string               `json:"metrics"`
	Logs          string               `json:"logs"`
	Charts        json.RawMessage      `json:"charts"`

	TypeSpecificData json.RawMessage `json:"typeSpecificData"`

	Domain []string `json:"domain"`
	Tags   []string `json:"tags"`
	Stage  string   `json:"stage"`
}

// SubmissionService 失败记录的提交与查询
type SubmissionService struct {
	db         *gorm.DB
	identities *IdentityResolver
	tokens     *TokenService
	gate       *ModerationGate
	enricher   *Enricher
	cache      *utils.Cache
	log        *zap.Logger
	now        func() time.Time
}

func NewSubmissionService(db *gorm.DB, identities *IdentityResolver, tokens *TokenService, gate *ModerationGate, enricher *Enricher, cache *utils.Cache, log *zap.Logger) *SubmissionService {
	return &SubmissionService{
		db:         db,
		identities: identities,
		tokens:     tokens,
		gate:       gate,
		enricher:   enricher,
		cache:      cache,
		log:        log,
		now:        time.Now,
	}
}

// Create 校验、审核并保存一条提交。记录与审核结果在同一事务中写入
func (s *SubmissionService) Create(ctx context.Context, actor *models.User, in SubmissionInput) (*models.FailureRecord, error) {
	details, err := validateSubmission(in)
	if err != nil {
		return nil, err
	}

	var userID *uint
	if actor != nil {
		userID = &actor.ID
	} else {
		// 未登录时先校验令牌，认证错误优先于其他字段错误，也避免无谓的审核调用
		if _, err := s.tokens.Validate(ctx, in.AnonymousToken); err != nil {
			return nil, err
		}
	}
	identity, err := s.identities.Resolve(in.IdentityMode, userID, in.AttributionName)
	if err != nil {
		return nil, err
	}

	rec := buildRecord(in, details, identity)
	admission := s.gate.Screen(ctx, ai.ModerationInput{
		Title:      rec.Title,
		Hypothesis: rec.Hypothesis,
		Method:     rec.Method,
		Links:      links(rec),
	})
	rec.Status = admission.Status
	mod := admission.Moderation

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if actor == nil {
			tok, err := s.tokens.Consume(tx, in.AnonymousToken)
			if err != nil {
				return err
			}
			rec.AnonymousTokenID = &tok.ID
		}
		if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
			return fmt.Errorf("insert failure record: %w", err)
		}
		mod.FailureRecordID = rec.ID
		if err := tx.Create(&mod).Error; err != nil {
			return fmt.Errorf("insert moderation record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec.Moderation = &mod

	if rec.Status == models.StatusPublished {
		s.cache.DeletePrefix(galleryCachePrefix)
	}
	s.enricher.Enqueue(EnrichmentJob{
		RecordID: rec.ID,
		Input: ai.ExtractionInput{
			Title:         rec.Title,
			Hypothesis:    rec.Hypothesis,
			Method:        rec.Method,
			Domain:        rec.Domain,
			FailurePoints: rec.FailurePoints,
		},
	})

	s.log.Info("Submission created",
		zap.String("record_id", rec.ID),
		zap.String("type", string(rec.Type)),
		zap.String("status", string(rec.Status)),
		zap.String("identity_mode", string(rec.IdentityMode)))
	return rec, nil
}

func validateSubmission(in SubmissionInput) (models.Details, error) {
	if !in.LicenseAccepted {
		return nil, apperr.Validation("license acceptance is required")
	}
	if blank(in.Title) || blank(in.Hypothesis) || blank(in.Method) || blank(in.KeyMisunderstanding) {
		return nil, apperr.Validation("missing required fields: title, hypothesis, method and keyMisunderstanding are required")
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("type %q is not valid", in.Type)
	}
	if !in.IdentityMode.Valid() {
		return nil, apperr.Validation("identityMode %q is not valid", in.IdentityMode)
	}
	for _, fp := range in.FailurePoints {
		if !fp.Valid() {
			return nil, apperr.Validation("failure point %q is not valid", fp)
		}
	}
	if in.EvidenceLevel != "" && !in.EvidenceLevel.Valid() {
		return nil, apperr.Validation("evidenceLevel %q is not valid", in.EvidenceLevel)
	}
	if gh := strings.TrimSpace(in.GithubLink); gh != "" && !githubPattern.MatchString(gh) {
		return nil, apperr.Validation("githubLink must be a GitHub repository URL")
	}
	if len(in.Charts) > 0 && string(in.Charts) != "null" {
		var charts []json.RawMessage
		if err := json.Unmarshal(in.Charts, &charts); err != nil {
			return nil, apperr.Validation("charts must be an array")
		}
	}
	details, err := models.DecodeDetails(in.Type, in.TypeSpecificData)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	return details, nil
}

func buildRecord(in SubmissionInput, details models.Details, id Identity) *models.FailureRecord {
	level := in.EvidenceLevel
	if level == "" {
		level = models.EvidenceAnecdotal
	}

	failurePoints := make(models.StringList, 0, len(in.FailurePoints))
	for _, fp := range in.FailurePoints {
		failurePoints = append(failurePoints, string(fp))
	}

	detailsJSON, _ := json.Marshal(details)
	charts := datatypes.JSON("[]")
	var chartList []json.RawMessage
	if json.Unmarshal(in.Charts, &chartList) == nil && chartList != nil {
		charts = datatypes.JSON(in.Charts)
	}

	rec := &models.FailureRecord{
		Type:                 in.Type,
		UserID:               id.UserID,
		IdentityMode:         in.IdentityMode,
		PseudonymousID:       id.PseudonymousID,
		AttributionDate:      id.AttributionDate,
		LicenseAccepted:      true,
		TextLicense:          models.DefaultTextLicense,
		CodeLicense:          models.DefaultCodeLicense,
		Title:                strings.TrimSpace(in.Title),
		Hypothesis:           in.Hypothesis,
		Method:               in.Method,
		FailurePoints:        failurePoints,
		KeyMisunderstanding:  in.KeyMisunderstanding,
		SalvageableKnowledge: in.SalvageableKnowledge,
		EvidenceLevel:        level,
		GithubLink:           optional(in.GithubLink),
		PDFURL:               optional(in.PDFURL),
		Metrics:              optional(in.Metrics),
		Logs:                 optional(in.Logs),
		Charts:               charts,
		TypeSpecificData:     datatypes.JSON(detailsJSON),
		Domain:               cleanList(in.Domain),
		Tags:                 cleanList(in.Tags),
		AIExtractedTags:      models.StringList{},
		Stage:                optional(in.Stage),
	}
	rec.EvidenceScore = utils.EvidenceScore(level,
		rec.GithubLink != nil, rec.Metrics != nil, rec.Logs != nil, len(chartList) > 0)
	return rec
}

func links(rec *models.FailureRecord) []string {
	var out []string
	if rec.GithubLink != nil {
		out = append(out, *rec.GithubLink)
	}
	if rec.PDFURL != nil {
		out = append(out, *rec.PDFURL)
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cleanList(in []string) models.StringList {
	out := make(models.StringList, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" && !out.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// ListFilter 画廊查询条件
type ListFilter struct {
	Type   string
	Domain string
	SortBy string
	Order  string
	Page   int
	Limit  int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// SubmissionSummary 列表项
type SubmissionSummary struct {
	ID             string               `json:"id"`
	Type           models.RecordType    `json:"type"`
	IdentityMode   models.IdentityMode  `json:"identityMode"`
	PseudonymousID *string              `json:"pseudonymousId"`
	Author         *AuthorView          `json:"author"`
	Title          string               `json:"title"`
	Hypothesis     string               `json:"hypothesis"`
	FailurePoints  models.StringList    `json:"failurePoints"`
	EvidenceLevel  models.EvidenceLevel `json:"evidenceLevel"`
	EvidenceScore  int                  `json:"evidenceScore"`
	Domain         models.StringList    `json:"domain"`
	Tags           models.StringList    `json:"tags"`
	ReuseCount     int                  `json:"reuseCount"`
	AvoidedCount   int                  `json:"avoidedCount"`
	ReferenceCount int                  `json:"referenceCount"`
	CreatedAt      time.Time            `json:"createdAt"`
}

type ListResult struct {
	Submissions []SubmissionSummary `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

// galleryPage is cached without author projection; visibility is evaluated per read.
type galleryPage struct {
	records []models.FailureRecord
	total   int64
}

// List 已发布记录的分页列表，总数与当前页并行查询
func (s *SubmissionService) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s|%s|%s|%s|%d|%d", galleryCachePrefix, f.Type, f.Domain, f.SortBy, f.Order, f.Page, f.Limit)
	page, ok := s.cache.Get(key).(*galleryPage)
	if !ok {
		page, err = s.fetchPage(ctx, f)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, page, galleryCacheTTL)
	}

	now := s.now()
	out := &ListResult{
		Submissions: make([]SubmissionSummary, 0, len(page.records)),
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      page.total,
			TotalPages: int(math.Ceil(float64(page.total) / float64(f.Limit))),
		},
	}
	for i := range page.records {
		out.Submissions = append(out.Submissions, summarize(&page.records[i], now))
	}
	return out, nil
}

func normalizeFilter(f ListFilter) (ListFilter, error) {
	if f.Type != "" && !models.RecordType(f.Type).Valid() {
		return f, apperr.Validation("type %q is not valid", f.Type)
	}
	if f.SortBy == "" {
		f.SortBy = "createdAt"
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		return f, apperr.Validation("sortBy %q is not supported", f.SortBy)
	}
	f.Order = strings.ToLower(f.Order)
	if f.Order == "" {
		f.Order = "desc"
	}
	if f.Order != "asc" && f.Order != "desc" {
		return f, apperr.Validation("order must be asc or desc")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	f.Domain = strings.TrimSpace(f.Domain)
	return f, nil
}

func (s *SubmissionService) fetchPage(ctx context.Context, f ListFilter) (*galleryPage, error) {
	base := func(ctx context.Context) *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.FailureRecord{}).Where("status = ?", models.StatusPublished)
		if f.Type != "" {
			q = q.Where("type = ?", f.Type)
		}
		if f.Domain != "" {
			q = whereDomainOverlap(q, []string{f.Domain})
		}
		return q
	}

	page := &galleryPage{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := base(gctx).Count(&page.total).Error; err != nil {
			return fmt.Errorf("count submissions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		order := clause.OrderByColumn{Column: clause.Column{Name: sortColumns[f.SortBy]}, Desc: f.Order == "desc"}
		err := base(gctx).
			Preload("User").
			Order(order).
			Order("id").
			Offset((f.Page - 1) * f.Limit).
			Limit(f.Limit).
			Find(&page.records).Error
		if err != nil {
			return fmt.Errorf("list submissions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

func summarize(r *models.FailureRecord, now time.Time) SubmissionSummary {
	return SubmissionSummary{
		ID:             r.ID,
		Type:           r.Type,
		IdentityMode:   r.IdentityMode,
		PseudonymousID: r.PseudonymousID,
		Author:         ProjectAuthorFields(r, r.User, now),
		Title:          r.Title,
		Hypothesis:     r.Hypothesis,
		FailurePoints:  r.FailurePoints,
		EvidenceLevel:  r.EvidenceLevel,
		EvidenceScore:  r.EvidenceScore,
		Domain:         r.Domain,
		Tags:           r.Tags,
		ReuseCount:     r.ReuseCount,
		AvoidedCount:   r.AvoidedCount,
		ReferenceCount: r.ReferenceCount,
		CreatedAt:      r.CreatedAt,
	}
}

// RenderedSections 渲染后的叙述字段
type RenderedSections struct {
	Hypothesis           template.HTML `json:"hypothesis"`
	Method               template.HTML `json:"method"`
	KeyMisunderstanding  template.HTML `json:"keyMisunderstanding"`
	SalvageableKnowledge template.HTML `json:"salvageableKnowledge"`
}

// SubmissionView 详情页
type SubmissionView struct {
	*models.FailureRecord
	Author           *AuthorView                `json:"author"`
	Rendered         RenderedSections           `json:"rendered"`
	Reuses           map[models.ReuseType]int64 `json:"reuses"`
	ModerationStatus models.ModerationStatus    `json:"moderationStatus,omitempty"`
}

// Get 单条记录。未发布的记录只对作者和管理员可见，其他人得到 NotFound
func (s *SubmissionService) Get(ctx context.Context, id string, viewer *models.User) (*SubmissionView, error) {
	var rec models.FailureRecord
	err := s.db.WithContext(ctx).Preload("User").Preload("Moderation").Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("submission")
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if rec.Status != models.StatusPublished && !viewer.IsAdmin() && (viewer == nil || !rec.OwnedBy(viewer.ID)) {
		return nil, apperr.NotFound("submission")
	}

	var rows []struct {
		Type  models.ReuseType
		Count int64
	}
	err = s.db.WithContext(ctx).Model(&models.ReuseRecord{}).
		Select("type, COUNT(*) AS count").
		Where("failure_record_id = ?", rec.ID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count reuses: %w", err)
	}
	tally := map[models.ReuseType]int64{models.ReuseReused: 0, models.ReuseAvoided: 0, models.ReuseReferenced: 0}
	for _, row := range rows {
		tally[row.Type] = row.Count
	}

	view := &SubmissionView{
		FailureRecord: &rec,
		Author:        ProjectAuthorFields(&rec, rec.User, s.now()),
		Rendered: RenderedSections{
			Hypothesis:           utils.RenderMarkdown(rec.Hypothesis),
			Method:               utils.RenderMarkdown(rec.Method),
			KeyMisunderstanding:  utils.RenderMarkdown(rec.KeyMisunderstanding),
			SalvageableKnowledge: utils.RenderMarkdown(rec.SalvageableKnowledge),
		},
		Reuses: tally,
	}
	if rec.Moderation != nil {
		view.ModerationStatus = rec.Moderation.Status
	}
	return view, nil
}

// OwnerSubmission 作者后台列表项
type OwnerSubmission struct {
	ID             string                  `json:"id"`
	Title          string                  `json:"title"`
	Type           models.RecordType       `json:"type"`
	IdentityMode   models.IdentityMode     `json:"identityMode"`
	PseudonymousID *string                 `json:"pseudonymousId"`
	Status         models.SubmissionStatus `json:"status"`
	CreatedAt      time.Time               `json:"createdAt"`
}

type SubmissionStats struct {
	Total          int            `json:"total"`
	ByCategory     map[string]int `json:"byCategory"`
	ByStatus       map[string]int `json:"byStatus"`
	ByIdentityMode map[string]int `json:"byIdentityMode"`
}

// ListForOwner 用户自己的提交及统计
func (s *SubmissionService) ListForOwner(ctx context.Context, userID uint) ([]OwnerSubmission, SubmissionStats, error) {
	var subs []OwnerSubmission
	err := s.db.WithContext(ctx).Model(&models.FailureRecord{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, SubmissionStats{}, fmt.Errorf("list owner submissions: %w", err)
	}

	stats := SubmissionStats{
		Total:          len(subs),
		ByCategory:     map[string]int{},
		ByStatus:       map[string]int{},
		ByIdentityMode: map[string]int{},
	}
	for _, sub := range subs {
		stats.ByCategory[string(sub.Type)]++
		stats.ByStatus[string(sub.Status)]++
		stats.ByIdentityMode[string(sub.IdentityMode)]++
	}
	return subs, stats, nil
}

// OwnerView 作者查看自己的完整记录
type OwnerView struct {
	*models.FailureRecord
	Moderation *models.ModerationRecord `json:"moderation"`
}

// GetForOwner 只返回属于 userID 的记录，否则 NotFound
func (s *SubmissionService) GetForOwner(ctx context.Context, userID uint, id string) (*OwnerView, error) {
	var rec models.FailureRecord
	err := s.db.WithContext(ctx).Preload("Moderation").
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("submission")
		}
		return nil, fmt.Errorf("load owner submission: %w", err)
	}
	return &OwnerView{FailureRecord: &rec, Moderation: rec.Moderation}, nil
}
