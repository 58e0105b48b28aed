// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string

	// Profile store: "sqlite" (default) or "supabase".
	StoreDriver        string
	DBPath             string
	SupabaseURL        string
	SupabaseServiceKey string

	// Briefing session store: "memory" (default) or "redis".
	SessionStore string
	RedisAddr    string
	SessionTTL   time.Duration

	Generation GenerationConfig
}

// GenerationConfig controls the model streaming client.
type GenerationConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	timeoutSecs := getEnvInt("GENERATION_TIMEOUT_SECONDS", 120)
	if timeoutSecs <= 0 {
		timeoutSecs = 120
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		StoreDriver:        getEnv("STORE_DRIVER", "sqlite"),
		DBPath:             getEnv("DB_PATH", "./data/studio.db"),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SessionStore:       getEnv("SESSION_STORE", "memory"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		SessionTTL:         24 * time.Hour,
		Generation: GenerationConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-pro-latest"),
			Timeout: time.Duration(timeoutSecs) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StoreDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when STORE_DRIVER=sqlite")
		}
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required when STORE_DRIVER=supabase")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be sqlite or supabase, got %q", c.StoreDriver)
	}
	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.SessionStore)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
