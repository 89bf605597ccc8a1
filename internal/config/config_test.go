package config

import (
	"os"
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "FRONTEND_ORIGIN", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATABASE_URL",
	"WATCHLIST_FILE", "ALERT_STATE", "REDIS_URL", "REDIS_PASSWORD", "PRICE_SOURCE",
	"PRICE_API_URL", "PRICE_SCRAPE_URL", "PRICE_SCRAPE_SELECTOR", "MONITOR_INTERVAL",
	"ALERT_TOLERANCE", "NEW_HIGH_EPSILON", "PRICE_SCALE", "DEFAULT_LOW", "FETCH_TIMEOUT",
	"LOG_LEVEL", "LOG_FILE", "INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	t.Setenv("TEST_ENVOR_KEY", "custom")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	t.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("Interval = %v, want 15s", cfg.Interval)
	}
	if cfg.Tolerance != 0.05 {
		t.Errorf("Tolerance = %v, want 0.05", cfg.Tolerance)
	}
	if cfg.NewHighEpsilon != 50_000 {
		t.Errorf("NewHighEpsilon = %v, want 50000", cfg.NewHighEpsilon)
	}
	if cfg.Scale != 1e9 {
		t.Errorf("Scale = %v, want 1e9", cfg.Scale)
	}
	if cfg.DefaultLow != 6000 {
		t.Errorf("DefaultLow = %v, want 6000", cfg.DefaultLow)
	}
	if cfg.AlertState != "memory" || cfg.PriceSource != "api" {
		t.Errorf("AlertState = %q, PriceSource = %q", cfg.AlertState, cfg.PriceSource)
	}
	if cfg.WatchlistFile != "data/tokens.json" {
		t.Errorf("WatchlistFile = %q", cfg.WatchlistFile)
	}
	if cfg.DatabaseURL != "" || cfg.TelegramToken != "" || cfg.TelegramChatID != 0 {
		t.Errorf("unexpected secrets: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("MONITOR_INTERVAL", "30s")
	t.Setenv("ALERT_TOLERANCE", "0.02")
	t.Setenv("NEW_HIGH_EPSILON", "1000")
	t.Setenv("PRICE_SCALE", "1")
	t.Setenv("PRICE_SOURCE", "binance")
	t.Setenv("FETCH_TIMEOUT", "5")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.TelegramToken != "test-token" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
	if cfg.TelegramChatID != -100123 {
		t.Errorf("TelegramChatID = %d, want -100123", cfg.TelegramChatID)
	}
	if cfg.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Interval)
	}
	if cfg.Tolerance != 0.02 || cfg.NewHighEpsilon != 1000 || cfg.Scale != 1 {
		t.Errorf("Tolerance/NewHighEpsilon/Scale = %v/%v/%v", cfg.Tolerance, cfg.NewHighEpsilon, cfg.Scale)
	}
	if cfg.PriceSource != "binance" {
		t.Errorf("PriceSource = %q", cfg.PriceSource)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALERT_TOLERANCE", "five percent")
	t.Setenv("NEW_HIGH_EPSILON", "-3")
	t.Setenv("TELEGRAM_CHAT_ID", "abc")
	t.Setenv("MONITOR_INTERVAL", "soon")

	cfg := Load()

	if cfg.Tolerance != 0.05 {
		t.Errorf("Tolerance = %v, want default 0.05", cfg.Tolerance)
	}
	if cfg.NewHighEpsilon != 50_000 {
		t.Errorf("NewHighEpsilon = %v, want default", cfg.NewHighEpsilon)
	}
	if cfg.TelegramChatID != 0 {
		t.Errorf("TelegramChatID = %d, want 0", cfg.TelegramChatID)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("Interval = %v, want default", cfg.Interval)
	}
}
