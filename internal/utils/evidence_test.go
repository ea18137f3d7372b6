package utils

import (
	"testing"

	"failarchive/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvidenceScore(t *testing.T) {
	assert.Equal(t, 30, EvidenceScore(models.EvidenceAnecdotal, false, false, false, false))
	assert.Equal(t, 10, EvidenceScore(models.EvidenceNone, false, false, false, false))
	assert.Equal(t, 85, EvidenceScore(models.EvidenceResearchGrade, false, true, false, false))
	assert.Equal(t, 75, EvidenceScore(models.EvidenceMetrics, true, false, true, false))
	assert.Equal(t, 100, EvidenceScore(models.EvidenceReproducible, true, true, true, true))
	assert.Equal(t, 0, EvidenceScore("BOGUS", false, false, false, false))
}
