package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
)

type Config struct {
	Port           string
	FrontendOrigin string

	TelegramToken  string
	TelegramChatID int64

	DatabaseURL   string
	WatchlistFile string

	AlertState    string // "memory" or "redis"
	RedisURL      string
	RedisPassword string

	PriceSource    string // "api", "binance", "stream" or "scrape"
	PriceAPIURL    string
	ScrapeURL      string
	ScrapeSelector string

	Interval       time.Duration
	Tolerance      float64
	NewHighEpsilon float64
	Scale          float64
	DefaultLow     float64
	FetchTimeout   time.Duration

	LogLevel string
	LogFile  string
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: envInt64("TELEGRAM_CHAT_ID", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		WatchlistFile:  envOr("WATCHLIST_FILE", "data/tokens.json"),
		AlertState:     envOr("ALERT_STATE", "memory"),
		RedisURL:       envOr("REDIS_URL", "redis://localhost:6379/0"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		PriceSource:    envOr("PRICE_SOURCE", "api"),
		PriceAPIURL:    os.Getenv("PRICE_API_URL"),
		ScrapeURL:      os.Getenv("PRICE_SCRAPE_URL"),
		ScrapeSelector: os.Getenv("PRICE_SCRAPE_SELECTOR"),
		Interval:       envDuration("MONITOR_INTERVAL", 15*time.Second),
		Tolerance:      envFloat("ALERT_TOLERANCE", 0.05),
		NewHighEpsilon: envFloat("NEW_HIGH_EPSILON", 50_000),
		Scale:          envFloat("PRICE_SCALE", 1e9),
		DefaultLow:     envFloat("DEFAULT_LOW", 6000),
		FetchTimeout:   envDuration("FETCH_TIMEOUT", 10*time.Second),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &cfg.TelegramToken,
		"DATABASE_URL":       &cfg.DatabaseURL,
		"REDIS_PASSWORD":     &cfg.RedisPassword,
		"PRICE_API_URL":      &cfg.PriceAPIURL,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		slog.Warn("invalid number in env, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("invalid integer in env, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

// envDuration accepts Go durations ("15s", "1m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	slog.Warn("invalid duration in env, using default", "key", key, "value", v, "default", fallback)
	return fallback
}
