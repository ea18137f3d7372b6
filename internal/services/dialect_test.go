package services

import (
	"testing"

	"failarchive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereDomainOverlapIsExact(t *testing.T) {
	conn := newTestDB(t)
	underscore := createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Domain = models.StringList{"a_b"} })
	createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Domain = models.StringList{"axb"} })
	percent := createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Domain = models.StringList{"100%"} })
	createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Domain = models.StringList{"1000"} })
	upper := createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Domain = models.StringList{"Fintech"} })
	createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Domain = models.StringList{"fintech-ops"} })

	match := func(domains ...string) []string {
		t.Helper()
		var ids []string
		require.NoError(t, whereDomainOverlap(conn.Model(&models.FailureRecord{}), domains).Pluck("id", &ids).Error)
		return ids
	}

	assert.Equal(t, []string{underscore.ID}, match("a_b"))
	assert.Equal(t, []string{percent.ID}, match("100%"))
	assert.Empty(t, match("fintech"))
	assert.Equal(t, []string{upper.ID}, match("Fintech"))
	assert.Empty(t, match("a%"))
	assert.ElementsMatch(t, []string{underscore.ID, upper.ID}, match("a_b", "Fintech"))
}
