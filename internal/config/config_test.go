package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "LISTEN_ADDR", "DATABASE_URL", "GEMINI_API_KEY", "MODEL_TIMEOUT", "SESSION_TTL", "MAX_UPLOAD_MB", "MAX_UPLOAD_FILES", "CORS_ORIGINS", "REQUIRE_CITATIONS"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 90*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 6, cfg.MaxUploadFiles)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.RequireCitations)
	assert.False(t, cfg.ModelConfigured())
	assert.False(t, cfg.StoreConfigured())
	assert.True(t, cfg.Development())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/labelcheck")
	t.Setenv("GEMINI_API_KEY", " key ")
	t.Setenv("MODEL_TIMEOUT", "30s")
	t.Setenv("MAX_UPLOAD_MB", "4")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REQUIRE_CITATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.True(t, cfg.ModelConfigured())
	assert.True(t, cfg.StoreConfigured())
	assert.False(t, cfg.Development())
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout)
	assert.Equal(t, int64(4<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.RequireCitations)
}

func TestLoadRejectsMalformed(t *testing.T) {
	t.Setenv("MODEL_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "MODEL_TIMEOUT")

	t.Setenv("MODEL_TIMEOUT", "")
	t.Setenv("MAX_UPLOAD_FILES", "0")
	_, err = Load()
	assert.Error(t, err)
}
