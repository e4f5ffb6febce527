package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "ngrok-skip-browser-warning", cfg.Upstream.BypassKey)
	assert.Equal(t, "true", cfg.Upstream.BypassValue)
	assert.Zero(t, cfg.Upstream.Timeout)
	assert.Equal(t, SessionStoreFile, cfg.Session.Store)
	assert.Equal(t, "authToken", cfg.Session.TokenKey)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, time.Second, cfg.Audit.RetryDelay)
	assert.True(t, cfg.Exports.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com/api/")
	t.Setenv("UPSTREAM_TIMEOUT", "15s")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("ENABLE_AUDIT", "true")
	t.Setenv("AUDIT_RETRY_DELAY", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api", cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, time.Second, cfg.Audit.RetryDelay)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}
