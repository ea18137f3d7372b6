package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"failarchive/internal/apperr"
	"failarchive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func reloadRecord(t *testing.T, conn *gorm.DB, id string) models.FailureRecord {
	t.Helper()
	var rec models.FailureRecord
	require.NoError(t, conn.Where("id = ?", id).First(&rec).Error)
	return rec
}

func countRows(t *testing.T, conn *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestDeclareTwiceUpdatesNoteOnly(t *testing.T) {
	conn := newTestDB(t)
	ledger := NewReuseLedger(conn, newTestCache(t))
	owner := createUser(t, conn)
	reader := createUser(t, conn)
	rec := createRecord(t, conn, owner, nil)
	ctx := context.Background()

	first, err := ledger.Declare(ctx, rec.ID, reader.ID, models.ReuseReused, strPtr("first"))
	require.NoError(t, err)
	second, err := ledger.Declare(ctx, rec.ID, reader.ID, models.ReuseReused, strPtr("second"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.PrivateNotes)
	assert.Equal(t, "second", *second.PrivateNotes)

	assert.EqualValues(t, 1, countRows(t, conn, &models.ReuseRecord{}, "failure_record_id = ?", rec.ID))
	assert.Equal(t, 1, reloadRecord(t, conn, rec.ID).ReuseCount)
	assert.EqualValues(t, 1, countRows(t, conn, &models.ReuseNotification{}, "user_id = ?", owner.ID))

	var stored models.ReuseRecord
	require.NoError(t, conn.First(&stored, "id = ?", first.ID).Error)
	assert.Equal(t, "second", *stored.PrivateNotes)
}

func TestDeclareEachTypeOnce(t *testing.T) {
	conn := newTestDB(t)
	ledger := NewReuseLedger(conn, newTestCache(t))
	owner := createUser(t, conn)
	reader := createUser(t, conn)
	rec := createRecord(t, conn, owner, nil)
	ctx := context.Background()

	for _, typ := range []models.ReuseType{models.ReuseReused, models.ReuseAvoided, models.ReuseReferenced} {
		_, err := ledger.Declare(ctx, rec.ID, reader.ID, typ, nil)
		require.NoError(t, err)
	}

	got := reloadRecord(t, conn, rec.ID)
	assert.Equal(t, 1, got.ReuseCount)
	assert.Equal(t, 1, got.AvoidedCount)
	assert.Equal(t, 1, got.ReferenceCount)
	assert.EqualValues(t, 3, countRows(t, conn, &models.ReuseRecord{}, "failure_record_id = ?", rec.ID))
	assert.EqualValues(t, 3, countRows(t, conn, &models.ReuseNotification{}, "user_id = ?", owner.ID))
}

func TestDeclareCountsDistinctUsers(t *testing.T) {
	conn := newTestDB(t)
	ledger := NewReuseLedger(conn, newTestCache(t))
	rec := createRecord(t, conn, createUser(t, conn), nil)

	for i := 0; i < 3; i++ {
		u := createUser(t, conn)
		for j := 0; j < 2; j++ {
			_, err := ledger.Declare(context.Background(), rec.ID, u.ID, models.ReuseAvoided, nil)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 3, reloadRecord(t, conn, rec.ID).AvoidedCount)
}

func TestDeclareNotificationRules(t *testing.T) {
	conn := newTestDB(t)
	ledger := NewReuseLedger(conn, newTestCache(t))
	owner := createUser(t, conn)
	ctx := context.Background()

	own := createRecord(t, conn, owner, nil)
	_, err := ledger.Declare(ctx, own.ID, owner.ID, models.ReuseReferenced, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, countRows(t, conn, &models.ReuseNotification{}, "1 = 1"))
	assert.Equal(t, 1, reloadRecord(t, conn, own.ID).ReferenceCount)

	orphan := createRecord(t, conn, nil, func(r *models.FailureRecord) { r.IdentityMode = models.IdentityAnonymous })
	_, err = ledger.Declare(ctx, orphan.ID, owner.ID, models.ReuseReused, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, countRows(t, conn, &models.ReuseNotification{}, "1 = 1"))
}

func TestDeclareErrors(t *testing.T) {
	conn := newTestDB(t)
	ledger := NewReuseLedger(conn, newTestCache(t))
	user := createUser(t, conn)
	rec := createRecord(t, conn, nil, nil)

	_, err := ledger.Declare(context.Background(), "missing", user.ID, models.ReuseReused, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = ledger.Declare(context.Background(), rec.ID, user.ID, "LIKED", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = ledger.Declare(context.Background(), "", user.ID, models.ReuseReused, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeclareConcurrentConverges(t *testing.T) {
	conn := newTestDB(t)
	ledger := NewReuseLedger(conn, newTestCache(t))
	owner := createUser(t, conn)
	reader := createUser(t, conn)
	rec := createRecord(t, conn, owner, nil)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ledger.Declare(context.Background(), rec.ID, reader.ID, models.ReuseReused, strPtr("note"))
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, countRows(t, conn, &models.ReuseRecord{}, "failure_record_id = ?", rec.ID))
	assert.Equal(t, 1, reloadRecord(t, conn, rec.ID).ReuseCount)
	assert.EqualValues(t, 1, countRows(t, conn, &models.ReuseNotification{}, "user_id = ?", owner.ID))
}

func TestListForUser(t *testing.T) {
	conn := newTestDB(t)
	ledger := NewReuseLedger(conn, newTestCache(t))
	reader := createUser(t, conn)
	a := createRecord(t, conn, nil, func(r *models.FailureRecord) { r.Title = "first" })
	b := createRecord(t, conn, nil, func(r *models.FailureRecord) {
		r.Title = "second"
		r.Type = models.TypeBusinessIdea
		r.Domain = models.StringList{"retail", "saas"}
	})
	ctx := context.Background()

	_, err := ledger.Declare(ctx, a.ID, reader.ID, models.ReuseReused, strPtr("private"))
	require.NoError(t, err)
	_, err = ledger.Declare(ctx, b.ID, reader.ID, models.ReuseAvoided, nil)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, conn.Model(&models.ReuseRecord{}).Where("failure_record_id = ?", a.ID).
		UpdateColumn("created_at", base).Error)
	require.NoError(t, conn.Model(&models.ReuseRecord{}).Where("failure_record_id = ?", b.ID).
		UpdateColumn("created_at", base.Add(time.Minute)).Error)

	items, err := ledger.ListForUser(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, b.ID, items[0].Record.ID)
	assert.Equal(t, "second", items[0].Record.Title)
	assert.Equal(t, models.TypeBusinessIdea, items[0].Record.Category)
	assert.Equal(t, models.StringList{"retail", "saas"}, items[0].Record.Domain)
	assert.Equal(t, "private", *items[1].PrivateNotes)

	other, err := ledger.ListForUser(ctx, reader.ID+100)
	require.NoError(t, err)
	assert.Empty(t, other)
}
