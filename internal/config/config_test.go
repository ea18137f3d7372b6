package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "AI_PROVIDER", "AI_TIMEOUT", "ANON_TOKEN_TTL", "ADMIN_EMAILS", "ENRICHMENT_QUEUE_SIZE", "APP_ENV"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "chat", cfg.AI.Provider)
	assert.Equal(t, 20*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.AnonTokenTTL)
	assert.Equal(t, 256, cfg.EnrichmentQueueSize)
	assert.Empty(t, cfg.AdminEmails)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("ANON_TOKEN_TTL", "-1h")
	t.Setenv("ADMIN_EMAILS", " Root@Example.com, ,ops@example.com")
	t.Setenv("ENRICHMENT_QUEUE_SIZE", "abc")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.AnonTokenTTL)
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, 256, cfg.EnrichmentQueueSize)
	assert.True(t, cfg.IsProduction())
}
