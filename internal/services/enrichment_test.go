package services

import (
	"errors"
	"testing"
	"time"

	"failarchive/internal/ai"
	"failarchive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEnricherStoresExtraction(t *testing.T) {
	defer goleak.VerifyNone(t, leakIgnores...)

	conn := newTestDB(t)
	rec := createRecord(t, conn, nil, nil)
	e := NewEnricher(conn, newFakeAI(), time.Second, 4, zap.NewNop())

	assert.True(t, e.Enqueue(EnrichmentJob{RecordID: rec.ID, Input: ai.ExtractionInput{Title: rec.Title}}))
	e.Close()

	var k models.KnowledgeExtraction
	require.NoError(t, conn.Where("failure_record_id = ?", rec.ID).First(&k).Error)
	assert.Equal(t, "normalized", k.NormalizedHypothesis)
	assert.Equal(t, models.StringList{"ml", "data"}, k.TaxonomyTags)
	assert.Equal(t, models.StringList{"ml", "data"}, reloadRecord(t, conn, rec.ID).AIExtractedTags)
}

func TestEnricherFailureIsLogged(t *testing.T) {
	defer goleak.VerifyNone(t, leakIgnores...)

	core, logs := observer.New(zapcore.WarnLevel)
	conn := newTestDB(t)
	rec := createRecord(t, conn, nil, nil)
	fake := newFakeAI()
	fake.extractErr = errors.New("model overloaded")
	e := NewEnricher(conn, fake, time.Second, 4, zap.New(core))

	require.True(t, e.Enqueue(EnrichmentJob{RecordID: rec.ID}))
	e.Close()

	assert.EqualValues(t, 1, fake.extractCalls.Load(), "failed jobs are not retried")
	var n int64
	require.NoError(t, conn.Model(&models.KnowledgeExtraction{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, reloadRecord(t, conn, rec.ID).AIExtractedTags)

	entries := logs.FilterMessage("Knowledge extraction failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, rec.ID, entries[0].ContextMap()["record_id"])
}

func TestEnricherTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, leakIgnores...)

	core, logs := observer.New(zapcore.WarnLevel)
	conn := newTestDB(t)
	fake := newFakeAI()
	fake.delay = time.Second
	e := NewEnricher(conn, fake, 20*time.Millisecond, 4, zap.New(core))

	start := time.Now()
	e.Enqueue(EnrichmentJob{RecordID: "r1"})
	e.Close()
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("Knowledge extraction failed").Len())
}

func TestEnricherDropsWhenFullOrClosed(t *testing.T) {
	defer goleak.VerifyNone(t, leakIgnores...)

	core, logs := observer.New(zapcore.WarnLevel)
	fake := newFakeAI()
	fake.delay = 100 * time.Millisecond
	fake.extractErr = errors.New("skip storage")
	e := NewEnricher(newTestDB(t), fake, time.Second, 1, zap.New(core))

	accepted := 0
	for i := 0; i < 3; i++ {
		if e.Enqueue(EnrichmentJob{RecordID: "r"}) {
			accepted++
		}
	}
	assert.Less(t, accepted, 3)
	assert.GreaterOrEqual(t, logs.FilterMessage("Enrichment queue full, dropping job").Len(), 1)

	e.Close()
	assert.False(t, e.Enqueue(EnrichmentJob{RecordID: "late"}))
	e.Close()
}
