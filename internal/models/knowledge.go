package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KnowledgeExtraction 异步抽取的结构化知识
type KnowledgeExtraction struct {
	ID                   string        `gorm:"primaryKey;size:36" json:"id"`
	FailureRecordID      string        `gorm:"size:36;not null;uniqueIndex" json:"failureRecordId"`
	FailureRecord        FailureRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	NormalizedHypothesis string        `gorm:"type:text" json:"normalizedHypothesis"`
	TaxonomyTags         StringList    `json:"taxonomyTags"`
	CommonPatterns       StringList    `json:"commonPatterns"`
	CreatedAt            time.Time     `json:"createdAt"`
}

func (k *KnowledgeExtraction) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
