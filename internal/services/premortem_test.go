package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"failarchive/internal/apperr"
	"failarchive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPreMortemRequiresIdea(t *testing.T) {
	svc := NewPreMortemService(newTestDB(t), newFakeAI(), time.Second, zap.NewNop())
	_, err := svc.Analyze(context.Background(), PreMortemRequest{Idea: "   "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPreMortemDegradesOnError(t *testing.T) {
	fake := newFakeAI()
	fake.premortemErr = errors.New("quota exceeded")
	svc := NewPreMortemService(newTestDB(t), fake, time.Second, zap.NewNop())

	res, err := svc.Analyze(context.Background(), PreMortemRequest{Idea: "Uber for dog walking"})
	require.NoError(t, err)
	want := DegradedPreMortem()
	assert.Equal(t, "MEDIUM", res.RiskLevel)
	assert.Equal(t, want.Recommendations, res.Recommendations)
	assert.NotNil(t, res.CommonPatterns)
	assert.NotNil(t, res.LikelyInvalidAssumptions)
	assert.Empty(t, res.RelatedFailures)
}

func TestPreMortemDegradesOnTimeout(t *testing.T) {
	fake := newFakeAI()
	fake.delay = time.Second
	svc := NewPreMortemService(newTestDB(t), fake, 20*time.Millisecond, zap.NewNop())

	res, err := svc.Analyze(context.Background(), PreMortemRequest{Idea: "idea"})
	require.NoError(t, err)
	assert.Equal(t, DegradedPreMortem().Recommendations, res.Recommendations)
}

func TestPreMortemRelatedFailures(t *testing.T) {
	conn := newTestDB(t)
	fake := newFakeAI()
	fake.premortem.RiskLevel = " high "
	svc := NewPreMortemService(conn, fake, time.Second, zap.NewNop())

	low := createRecord(t, conn, nil, func(r *models.FailureRecord) {
		r.Domain = models.StringList{"fintech"}
		r.ReuseCount = 1
	})
	high := createRecord(t, conn, nil, func(r *models.FailureRecord) {
		r.Domain = models.StringList{"payments", "fintech"}
		r.ReuseCount = 7
	})
	createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Domain = models.StringList{"gaming"} })
	createRecord(t, conn, nil, func(r *models.FailureRecord) {
		r.Domain = models.StringList{"fintech"}
		r.Status = models.StatusRejected
	})

	res, err := svc.Analyze(context.Background(), PreMortemRequest{
		Idea:   "Instant micro-loans",
		Domain: []string{"fintech", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{high.ID, low.ID}, res.RelatedFailures)
	require.Len(t, res.FailureDetails, 2)
	assert.Equal(t, 7, res.FailureDetails[0].ReuseCount)
	assert.Equal(t, "HIGH", res.RiskLevel)
	assert.Equal(t, []string{"p"}, res.CommonPatterns)
}

func TestPreMortemRelatedLimit(t *testing.T) {
	conn := newTestDB(t)
	svc := NewPreMortemService(conn, newFakeAI(), time.Second, zap.NewNop())
	for i := 0; i < relatedFailureLimit+3; i++ {
		createRecord(t, conn, nil, nil)
	}

	res, err := svc.Analyze(context.Background(), PreMortemRequest{Idea: "idea", Domain: []string{"infra"}})
	require.NoError(t, err)
	assert.Len(t, res.RelatedFailures, relatedFailureLimit)
}
