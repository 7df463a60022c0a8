package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/quillpay/ledger/internal/infrastructure/config"
)

// unsetenv clears a variable for the test while keeping t.Setenv's restore
// behavior, so defaults can be asserted regardless of the host environment.
func unsetenv(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "HTTP_PORT", "LOG_LEVEL",
		"TRANSACTION_TIMEOUT", "RATE_LIMIT_SOFT", "RATE_LIMIT_HARD",
		"WEBHOOK_DISABLE_THRESHOLD",
	} {
		unsetenv(t, key)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatal("expected default database URL to be set")
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.TransactionTimeout != 10*time.Second {
		t.Fatalf("expected default transaction timeout 10s, got %s", cfg.TransactionTimeout)
	}
	if cfg.RateLimitSoft != 5 || cfg.RateLimitHard != 20 {
		t.Fatalf("expected rate limit defaults 5/20, got %d/%d", cfg.RateLimitSoft, cfg.RateLimitHard)
	}
	if cfg.WebhookDisableThreshold != 10 {
		t.Fatalf("expected default disable threshold 10, got %d", cfg.WebhookDisableThreshold)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("TRANSACTION_TIMEOUT", "3s")
	t.Setenv("DISPATCHER_BATCH_SIZE", "7")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}
	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}
	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}
	if cfg.TransactionTimeout != 3*time.Second {
		t.Fatalf("expected transaction timeout override, got %s", cfg.TransactionTimeout)
	}
	if cfg.DispatcherBatchSize != 7 {
		t.Fatalf("expected batch size override, got %d", cfg.DispatcherBatchSize)
	}
	if cfg.RateLimitEnabled {
		t.Fatal("expected rate limiting to be disabled")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
