package services

import (
	"context"
	"testing"
	"time"

	"failarchive/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndValidate(t *testing.T) {
	conn := newTestDB(t)
	svc := NewTokenService(conn, time.Hour)
	ctx := context.Background()

	tok, err := svc.Issue(ctx)
	require.NoError(t, err)
	assert.Len(t, tok.Token, 32)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	got, err := svc.Validate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
}

func TestTokenValidateRejects(t *testing.T) {
	conn := newTestDB(t)
	svc := NewTokenService(conn, time.Hour)
	ctx := context.Background()

	for _, token := range []string{"", "   ", "unknown"} {
		_, err := svc.Validate(ctx, token)
		assert.True(t, apperr.Is(err, apperr.KindAuthentication), "token %q", token)
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	conn := newTestDB(t)
	svc := NewTokenService(conn, time.Hour)
	ctx := context.Background()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	tok, err := svc.Issue(ctx)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = svc.Validate(ctx, tok.Token)
	assert.NoError(t, err, "token is valid at exactly its expiry instant")

	svc.now = func() time.Time { return issued.Add(time.Hour + time.Second) }
	_, err = svc.Validate(ctx, tok.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}

func TestTokenConsumeOnce(t *testing.T) {
	conn := newTestDB(t)
	svc := NewTokenService(conn, time.Hour)
	ctx := context.Background()

	tok, err := svc.Issue(ctx)
	require.NoError(t, err)

	used, err := svc.Consume(conn.WithContext(ctx), tok.Token)
	require.NoError(t, err)
	require.NotNil(t, used.UsedAt)

	_, err = svc.Consume(conn.WithContext(ctx), tok.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))

	_, err = svc.Validate(ctx, tok.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}
