package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	LogLevel    string

	GeminiAPIKey     string
	GeminiModel      string
	ModelTimeout     time.Duration
	RequireCitations bool

	SessionTTL     time.Duration
	SessionSweep   string
	MaxUploadBytes int64
	MaxUploadFiles int
	CORSOrigins    []string
	MigrateOnStart bool
}

// ModelConfigured reports whether live analysis is possible.
func (c Config) ModelConfigured() bool { return c.GeminiAPIKey != "" }

// StoreConfigured reports whether auth and reports can be served.
func (c Config) StoreConfigured() bool { return c.DatabaseURL != "" }

func (c Config) Development() bool { return c.Env == "development" }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads configuration from the environment. Missing optional settings
// are not errors; malformed values are.
func Load() (Config, error) {
	cfg := Config{
		Env:         getenv("APP_ENV", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		SessionSweep: getenv("SESSION_SWEEP", "@every 1h"),
		CORSOrigins:  splitList(getenv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.ModelTimeout, err = cast.ToDurationE(getenv("MODEL_TIMEOUT", "90s")); err != nil {
		return cfg, fmt.Errorf("MODEL_TIMEOUT: %w", err)
	}
	if cfg.SessionTTL, err = cast.ToDurationE(getenv("SESSION_TTL", "168h")); err != nil {
		return cfg, fmt.Errorf("SESSION_TTL: %w", err)
	}
	mb, err := cast.ToInt64E(getenv("MAX_UPLOAD_MB", "10"))
	if err != nil {
		return cfg, fmt.Errorf("MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = mb << 20
	if cfg.MaxUploadFiles, err = cast.ToIntE(getenv("MAX_UPLOAD_FILES", "6")); err != nil {
		return cfg, fmt.Errorf("MAX_UPLOAD_FILES: %w", err)
	}
	if cfg.RequireCitations, err = cast.ToBoolE(getenv("REQUIRE_CITATIONS", "true")); err != nil {
		return cfg, fmt.Errorf("REQUIRE_CITATIONS: %w", err)
	}
	if cfg.MigrateOnStart, err = cast.ToBoolE(getenv("MIGRATE_ON_START", "true")); err != nil {
		return cfg, fmt.Errorf("MIGRATE_ON_START: %w", err)
	}

	if cfg.ModelTimeout <= 0 || cfg.SessionTTL <= 0 || cfg.MaxUploadBytes <= 0 || cfg.MaxUploadFiles <= 0 {
		return cfg, fmt.Errorf("timeouts and upload limits must be positive")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
