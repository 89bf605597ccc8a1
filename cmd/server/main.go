package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/fib-monitor/internal/collector"
	"github.com/web3-frozen/fib-monitor/internal/config"
	"github.com/web3-frozen/fib-monitor/internal/dedup"
	"github.com/web3-frozen/fib-monitor/internal/handler"
	"github.com/web3-frozen/fib-monitor/internal/logging"
	"github.com/web3-frozen/fib-monitor/internal/middleware"
	"github.com/web3-frozen/fib-monitor/internal/monitor"
	"github.com/web3-frozen/fib-monitor/internal/monitor/sources"
	"github.com/web3-frozen/fib-monitor/internal/store"
	"github.com/web3-frozen/fib-monitor/internal/telegram"
)

const notificationRetention = 30 * 24 * time.Hour

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFile)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Watch list
	wl, err := store.Open(ctx, cfg.DatabaseURL, cfg.WatchlistFile)
	if err != nil {
		logger.Error("failed to open watch list", "error", err)
		os.Exit(1)
	}
	defer wl.Close()

	var history handler.NotificationLister
	if db, ok := wl.(*store.Store); ok {
		history = db
		go cleanupLoop(ctx, db, logger)
		logger.Info("watch list backed by postgres")
	} else {
		logger.Info("watch list backed by file", "path", cfg.WatchlistFile)
	}

	// Alert state
	var state monitor.AlertState
	switch cfg.AlertState {
	case "redis":
		// Retry up to 30s for Redis to come up alongside the service.
		var rd *dedup.Redis
		for i := 0; i < 6; i++ {
			rd, err = dedup.NewRedis(cfg.RedisURL, cfg.RedisPassword)
			if err == nil {
				break
			}
			logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
			time.Sleep(5 * time.Second)
		}
		if err != nil {
			logger.Error("failed to connect to redis after retries", "error", err)
			os.Exit(1)
		}
		defer rd.Close()
		state = rd
		logger.Info("redis connected for alert state")
	default:
		state = dedup.NewMemory()
	}

	// Price source
	src, err := newPriceSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up price source", "source", cfg.PriceSource, "error", err)
		os.Exit(1)
	}

	// Telegram bot
	var alertFn monitor.AlertFunc
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, wl, cfg.TelegramChatID, cfg.DefaultLow, logger)
		if err != nil {
			logger.Error("failed to start telegram bot", "error", err)
			os.Exit(1)
		}
		alertFn = bot.SendMessage
		go bot.Run(ctx)
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, alerts will only be logged")
	}
	if cfg.TelegramChatID == 0 {
		logger.Warn("TELEGRAM_CHAT_ID not set, send /start to the bot to find it")
	}

	// Monitoring engine
	engine := monitor.NewEngine(monitor.Config{
		Interval:       cfg.Interval,
		FetchTimeout:   cfg.FetchTimeout,
		Tolerance:      cfg.Tolerance,
		NewHighEpsilon: cfg.NewHighEpsilon,
		Scale:          cfg.Scale,
		ChatID:         cfg.TelegramChatID,
	}, wl, src, state, alertFn, logger)
	go engine.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(wl))

	r.Route("/api", func(r chi.Router) {
		r.Get("/assets", handler.ListAssets(wl))
		r.Post("/assets", handler.CreateAsset(wl, cfg.DefaultLow))
		r.Put("/assets/{label}", handler.UpdateAsset(wl))
		r.Delete("/assets/{label}", handler.DeleteAsset(wl))
		r.Get("/assets/{label}/levels", handler.AssetLevels(wl))
		r.Get("/notifications", handler.ListNotifications(history))
		r.Get("/stats", handler.Stats(engine))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newPriceSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (monitor.PriceSource, error) {
	switch cfg.PriceSource {
	case "api":
		if cfg.PriceAPIURL == "" {
			return nil, fmt.Errorf("PRICE_API_URL is required")
		}
		api, err := sources.NewPriceAPI(cfg.PriceAPIURL)
		if err != nil {
			return nil, err
		}
		return api, nil
	case "binance":
		return sources.NewBinance(logger), nil
	case "stream":
		// Quotes older than a few ticks count as missing.
		t := collector.NewTicker(4*cfg.Interval, logger)
		go t.Run(ctx)
		return t, nil
	case "scrape":
		sc, err := sources.NewScraper(cfg.ScrapeURL, cfg.ScrapeSelector, logger)
		if err != nil {
			return nil, err
		}
		return sc, nil
	default:
		return nil, fmt.Errorf("unknown PRICE_SOURCE %q", cfg.PriceSource)
	}
}

func cleanupLoop(ctx context.Context, db *store.Store, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := db.CleanupOldNotifications(ctx, notificationRetention)
			if err != nil {
				logger.Error("cleanup old notifications failed", "error", err)
			} else if deleted > 0 {
				logger.Info("cleaned up old notifications", "deleted", deleted)
			}
		}
	}
}
