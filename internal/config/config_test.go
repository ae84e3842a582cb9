package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %s, want 8081", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/financas.db" {
		t.Errorf("SQLiteDBPath = %s", cfg.SQLiteDBPath)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want 12h", cfg.SessionTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("RATE_LIMIT_RPM", "120")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %s, want 9000", cfg.Port)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d, want 120", cfg.RateLimitPerMinute)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:               "8081",
			SQLiteDBPath:       "test.db",
			SessionTTL:         time.Hour,
			BcryptCost:         10,
			RateLimitPerMinute: 60,
			CacheTTL:           30 * time.Second,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"non-numeric port", func(c *Config) { c.Port = "abc" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"session ttl too short", func(c *Config) { c.SessionTTL = time.Second }, "session TTL"},
		{"bcrypt cost out of range", func(c *Config) { c.BcryptCost = 99 }, "bcrypt cost"},
		{"rate limit zero", func(c *Config) { c.RateLimitPerMinute = 0 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() = %v, want message containing %q", err, tt.wantMsg)
			}
		})
	}

	// All problems are reported together.
	cfg := valid()
	cfg.Port = "abc"
	cfg.RateLimitPerMinute = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("Validate() = %v, want both problems listed", err)
	}
}
