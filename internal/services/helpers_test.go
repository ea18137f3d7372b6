package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"failarchive/internal/ai"
	"failarchive/internal/config"
	"failarchive/internal/db"
	"failarchive/internal/models"
	"failarchive/internal/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeAI 可编排结果的模型替身
type fakeAI struct {
	mu           sync.Mutex
	verdict      ai.Verdict
	moderateErr  error
	extraction   ai.Extraction
	extractErr   error
	premortem    ai.PreMortem
	premortemErr error
	delay        time.Duration

	moderateCalls atomic.Int32
	extractCalls  atomic.Int32
}

func newFakeAI() *fakeAI {
	return &fakeAI{
		verdict:    ai.Verdict{Safe: true, Analysis: "looks fine"},
		extraction: ai.Extraction{NormalizedHypothesis: "normalized", TaxonomyTags: []string{"ml", "data"}},
		premortem:  ai.PreMortem{CommonPatterns: []string{"p"}, LikelyInvalidAssumptions: []string{"a"}, RiskLevel: "HIGH", Recommendations: []string{"r"}},
	}
}

func (f *fakeAI) wait(ctx context.Context) error {
	f.mu.Lock()
	d := f.delay
	f.mu.Unlock()
	if d == 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAI) Moderate(ctx context.Context, in ai.ModerationInput) (ai.Verdict, error) {
	f.moderateCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return ai.Verdict{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verdict, f.moderateErr
}

func (f *fakeAI) Extract(ctx context.Context, in ai.ExtractionInput) (ai.Extraction, error) {
	f.extractCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return ai.Extraction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extraction, f.extractErr
}

func (f *fakeAI) PreMortem(ctx context.Context, in ai.PreMortemInput) (ai.PreMortem, error) {
	if err := f.wait(ctx); err != nil {
		return ai.PreMortem{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.premortem, f.premortemErr
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func newTestCache(t *testing.T) *utils.Cache {
	t.Helper()
	cache, err := utils.NewCache(16)
	require.NoError(t, err)
	return cache
}

func testConfig() *config.Config {
	return &config.Config{
		AnonTokenTTL:        time.Hour,
		AdminEmails:         []string{"admin@example.com"},
		EnrichmentQueueSize: 16,
		AI:                  config.AIConfig{Timeout: time.Second},
	}
}

func newTestBundle(t *testing.T, fake *fakeAI) (*Bundle, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	b, err := NewBundle(conn, fake, testConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b, conn
}

var userSeq atomic.Int32

func createUser(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	u := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Password: "x",
		Avatar:   "🌱",
		Role:     models.RoleUser,
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

// createRecord 直接写入一条已发布记录
func createRecord(t *testing.T, conn *gorm.DB, owner *models.User, mutate func(*models.FailureRecord)) *models.FailureRecord {
	t.Helper()
	rec := &models.FailureRecord{
		Type:                models.TypeTechnicalProject,
		Status:              models.StatusPublished,
		IdentityMode:        models.IdentityAttributed,
		LicenseAccepted:     true,
		TextLicense:         models.DefaultTextLicense,
		CodeLicense:         models.DefaultCodeLicense,
		Title:               "A failed cache",
		Hypothesis:          "Caching would help",
		Method:              "Added a cache",
		KeyMisunderstanding: "Hit rate was low",
		EvidenceLevel:       models.EvidenceAnecdotal,
		FailurePoints:       models.StringList{},
		Domain:              models.StringList{"infra"},
		Tags:                models.StringList{},
		AIExtractedTags:     models.StringList{},
	}
	if owner != nil {
		rec.UserID = &owner.ID
	}
	if mutate != nil {
		mutate(rec)
	}
	require.NoError(t, conn.Omit("User", "Moderation").Create(rec).Error)
	return rec
}

func validInput(mode models.IdentityMode) SubmissionInput {
	return SubmissionInput{
		Type:                models.TypeTechnicalProject,
		IdentityMode:        mode,
		AttributionName:     "Ada",
		LicenseAccepted:     true,
		Title:               "Sharding too early",
		Hypothesis:          "Sharding would fix latency",
		Method:              "Split the database into 8 shards",
		KeyMisunderstanding: "The bottleneck was the ORM",
		FailurePoints:       []models.FailurePoint{models.FailureAssumptionInvalidated},
		Domain:              []string{"databases"},
	}
}
