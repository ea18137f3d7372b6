package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"failarchive/internal/ai"
	"failarchive/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrichmentJob 一条待抽取知识的记录
type EnrichmentJob struct {
	RecordID string
	Input    ai.ExtractionInput
}

// Enricher 后台知识抽取：有界队列加单个 worker，尽力而为，失败只记日志不重试
type Enricher struct {
	db      *gorm.DB
	ai      ai.Client
	timeout time.Duration
	log     *zap.Logger

	queue  chan EnrichmentJob
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewEnricher(db *gorm.DB, client ai.Client, timeout time.Duration, queueSize int, log *zap.Logger) *Enricher {
	e := &Enricher{
		db:      db,
		ai:      client,
		timeout: timeout,
		log:     log,
		queue:   make(chan EnrichmentJob, queueSize),
	}
	e.wg.Add(1)
	go e.worker()
	return e
}

// Enqueue 非阻塞入队，队列满或已关闭时丢弃并返回 false
func (e *Enricher) Enqueue(job EnrichmentJob) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}

	select {
	case e.queue <- job:
		return true
	default:
		e.log.Warn("Enrichment queue full, dropping job", zap.String("record_id", job.RecordID))
		return false
	}
}

// Close 停止接收新任务，处理完已入队的任务后返回
func (e *Enricher) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Enricher) worker() {
	defer e.wg.Done()
	for job := range e.queue {
		e.process(job)
	}
}

func (e *Enricher) process(job EnrichmentJob) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Enrichment panicked", zap.String("record_id", job.RecordID), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	ext, err := e.ai.Extract(ctx, job.Input)
	if err != nil {
		e.log.Warn("Knowledge extraction failed", zap.String("record_id", job.RecordID), zap.Error(err))
		return
	}
	if err := e.store(ctx, job.RecordID, ext); err != nil {
		e.log.Warn("Failed to store knowledge extraction", zap.String("record_id", job.RecordID), zap.Error(err))
		return
	}
	e.log.Debug("Knowledge extracted", zap.String("record_id", job.RecordID), zap.Int("tags", len(ext.TaxonomyTags)))
}

func (e *Enricher) store(ctx context.Context, recordID string, ext ai.Extraction) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		k := models.KnowledgeExtraction{
			FailureRecordID:      recordID,
			NormalizedHypothesis: ext.NormalizedHypothesis,
			TaxonomyTags:         models.StringList(ext.TaxonomyTags),
			CommonPatterns:       models.StringList(ext.CommonPatterns),
		}
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "failure_record_id"}}, DoNothing: true}).
			Create(&k).Error; err != nil {
			return fmt.Errorf("insert extraction: %w", err)
		}
		return tx.Model(&models.FailureRecord{}).
			Where("id = ?", recordID).
			UpdateColumn("ai_extracted_tags", models.StringList(ext.TaxonomyTags)).
			Error
	})
}
