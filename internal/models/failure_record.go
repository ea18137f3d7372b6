package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecordType string

const (
	TypeTechnicalProject RecordType = "TECHNICAL_PROJECT"
	TypeResearchPaper    RecordType = "RESEARCH_PAPER"
	TypeResearchIdea     RecordType = "RESEARCH_IDEA"
	TypeBusinessIdea     RecordType = "BUSINESS_IDEA"
	TypeFutureTechIdea   RecordType = "FUTURE_TECH_IDEA"
	TypeAIProject        RecordType = "AI_PROJECT"
)

var RecordTypes = []RecordType{
	TypeTechnicalProject, TypeResearchPaper, TypeResearchIdea,
	TypeBusinessIdea, TypeFutureTechIdea, TypeAIProject,
}

func (t RecordType) Valid() bool {
	for _, v := range RecordTypes {
		if v == t {
			return true
		}
	}
	return false
}

type IdentityMode string

const (
	IdentityAttributed   IdentityMode = "ATTRIBUTED"
	IdentityPseudonymous IdentityMode = "PSEUDONYMOUS"
	IdentityDelayed30    IdentityMode = "DELAYED_30"
	IdentityDelayed90    IdentityMode = "DELAYED_90"
	IdentityDelayed180   IdentityMode = "DELAYED_180"
	IdentityAnonymous    IdentityMode = "ANONYMOUS"
)

var IdentityModes = []IdentityMode{
	IdentityAttributed, IdentityPseudonymous, IdentityDelayed30,
	IdentityDelayed90, IdentityDelayed180, IdentityAnonymous,
}

func (m IdentityMode) Valid() bool {
	for _, v := range IdentityModes {
		if v == m {
			return true
		}
	}
	return false
}

// DelayDays 延迟署名的天数，非延迟模式返回 0
func (m IdentityMode) DelayDays() int {
	switch m {
	case IdentityDelayed30:
		return 30
	case IdentityDelayed90:
		return 90
	case IdentityDelayed180:
		return 180
	}
	return 0
}

func (m IdentityMode) Delayed() bool {
	return m.DelayDays() > 0
}

type SubmissionStatus string

const (
	StatusPendingModeration SubmissionStatus = "PENDING_MODERATION"
	StatusPublished         SubmissionStatus = "PUBLISHED"
	StatusRejected          SubmissionStatus = "REJECTED"
	StatusUnderReview       SubmissionStatus = "UNDER_REVIEW"
)

type FailurePoint string

const (
	FailureAssumptionInvalidated FailurePoint = "ASSUMPTION_INVALIDATED"
	FailureDataBias              FailurePoint = "DATA_BIAS"
	FailureTechnicalCeiling      FailurePoint = "TECHNICAL_CEILING"
	FailureUserBehaviorMismatch  FailurePoint = "USER_BEHAVIOR_MISMATCH"
	FailureMarketIllusion        FailurePoint = "MARKET_ILLUSION"
	FailureTimingMismatch        FailurePoint = "TIMING_MISMATCH"
	FailureScalingFailure        FailurePoint = "SCALING_FAILURE"
)

var FailurePoints = []FailurePoint{
	FailureAssumptionInvalidated, FailureDataBias, FailureTechnicalCeiling,
	FailureUserBehaviorMismatch, FailureMarketIllusion, FailureTimingMismatch,
	FailureScalingFailure,
}

func (p FailurePoint) Valid() bool {
	for _, v := range FailurePoints {
		if v == p {
			return true
		}
	}
	return false
}

type EvidenceLevel string

const (
	EvidenceNone          EvidenceLevel = "NONE"
	EvidenceAnecdotal     EvidenceLevel = "ANECDOTAL"
	EvidenceMetrics       EvidenceLevel = "METRICS"
	EvidenceResearchGrade EvidenceLevel = "RESEARCH_GRADE"
	EvidenceReproducible  EvidenceLevel = "REPRODUCIBLE"
)

func (e EvidenceLevel) Valid() bool {
	switch e {
	case EvidenceNone, EvidenceAnecdotal, EvidenceMetrics, EvidenceResearchGrade, EvidenceReproducible:
		return true
	}
	return false
}

const (
	DefaultTextLicense = "CC0-1.0"
	DefaultCodeLicense = "MIT"
)

// FailureRecord 失败记录，聚合根
type FailureRecord struct {
	ID     string           `gorm:"primaryKey;size:36" json:"id"`
	Type   RecordType       `gorm:"size:32;not null;index" json:"type"`
	Status SubmissionStatus `gorm:"size:32;not null;index" json:"status"`

	UserID           *uint        `gorm:"index" json:"-"`
	User             *User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	AnonymousTokenID *uint        `gorm:"index" json:"-"`
	IdentityMode     IdentityMode `gorm:"size:20;not null" json:"identityMode"`
	PseudonymousID   *string      `gorm:"size:20" json:"pseudonymousId"`
	AttributionDate  *time.Time   `json:"attributionDate"`

	LicenseAccepted bool   `gorm:"not null" json:"licenseAccepted"`
	TextLicense     string `gorm:"size:20;not null" json:"textLicense"`
	CodeLicense     string `gorm:"size:20;not null" json:"codeLicense"`

	Title                string     `gorm:"not null" json:"title"`
	Hypothesis           string     `gorm:"type:text;not null" json:"hypothesis"`
	Method               string     `gorm:"type:text;not null" json:"method"`
	FailurePoints        StringList `json:"failurePoints"`
	KeyMisunderstanding  string     `gorm:"type:text;not null" json:"keyMisunderstanding"`
	SalvageableKnowledge string     `gorm:"type:text" json:"salvageableKnowledge"`

	EvidenceLevel EvidenceLevel  `gorm:"size:20;not null" json:"evidenceLevel"`
	EvidenceScore int            `gorm:"default:0;index" json:"evidenceScore"`
	GithubLink    *string        `json:"githubLink,omitempty"`
	PDFURL        *string        `gorm:"column:pdf_url" json:"pdfUrl,omitempty"`
	Metrics       *string        `gorm:"type:text" json:"metrics,omitempty"`
	Logs          *string        `gorm:"type:text" json:"logs,omitempty"`
	Charts        datatypes.JSON `json:"charts,omitempty"`

	TypeSpecificData datatypes.JSON `json:"typeSpecificData"`

	Domain          StringList `json:"domain"`
	Tags            StringList `json:"tags"`
	AIExtractedTags StringList `gorm:"column:ai_extracted_tags" json:"aiExtractedTags"`
	Stage           *string    `gorm:"size:50" json:"stage,omitempty"`

	ReuseCount     int `gorm:"default:0;not null;index" json:"reuseCount"`
	AvoidedCount   int `gorm:"default:0;not null" json:"avoidedCount"`
	ReferenceCount int `gorm:"default:0;not null" json:"referenceCount"`

	Moderation *ModerationRecord `gorm:"foreignKey:FailureRecordID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *FailureRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// OwnedBy reports whether userID owns the record. Anonymous-token records have no owner.
func (r *FailureRecord) OwnedBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}
