package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WEBHOOK_TIMEOUT", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.ResumeAfterSubmit)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, int64(10485760), cfg.Upload.MaxFileSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")
	t.Setenv("RESUME_AFTER_SUBMIT", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 3*time.Second, cfg.Webhook.Timeout)
	assert.False(t, cfg.Session.ResumeAfterSubmit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseDuration_Fallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}
