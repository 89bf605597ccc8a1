package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/web3-frozen/fib-monitor/internal/fib"
	"github.com/web3-frozen/fib-monitor/internal/metrics"
	"github.com/web3-frozen/fib-monitor/internal/store"
)

const (
	KindNewHigh     = "new_high"
	KindRetracement = "retracement"
)

// AlertFunc sends a message to a Telegram chat.
type AlertFunc func(chatID int64, message string) error

// Config holds the tunables of the monitoring loop.
type Config struct {
	Interval       time.Duration
	FetchTimeout   time.Duration
	Tolerance      float64 // fractional band around a level, 0.05 = ±5%
	NewHighEpsilon float64 // value must exceed high by more than this
	Scale          float64 // raw quote -> comparable value
	ChatID         int64   // chat that receives alerts
}

func DefaultConfig() Config {
	return Config{
		Interval:       15 * time.Second,
		FetchTimeout:   10 * time.Second,
		Tolerance:      0.05,
		NewHighEpsilon: 50_000,
		Scale:          1e9,
	}
}

// AssetStatus is the last evaluation of one asset.
type AssetStatus struct {
	Label      string    `json:"label"`
	Address    string    `json:"address"`
	Value      float64   `json:"value"`
	HighPrice  float64   `json:"high_price"`
	LowPrice   float64   `json:"low_price"`
	ObservedAt time.Time `json:"observed_at"`
}

// Status summarizes the loop for the stats endpoint.
type Status struct {
	Source   string                 `json:"source"`
	Interval string                 `json:"interval"`
	LastTick time.Time              `json:"last_tick,omitzero"`
	TickID   string                 `json:"tick_id,omitempty"`
	Assets   map[string]AssetStatus `json:"assets"`
}

var errAssetGone = errors.New("asset no longer in watch list")

// Engine is the core monitoring engine. Every tick it snapshots the watch
// list, fetches all prices in one batch, advances ranges on new highs and
// alerts on the first retracement level within tolerance.
type Engine struct {
	cfg       Config
	watchlist WatchList
	prices    PriceSource
	state     AlertState
	alertFn   AlertFunc
	recorder  NotificationRecorder
	logger    *slog.Logger

	mu       sync.RWMutex
	lastTick time.Time
	tickID   string
	assets   map[string]AssetStatus
}

// NewEngine wires the loop. If wl also implements NotificationRecorder, sent
// alerts are logged to it.
func NewEngine(cfg Config, wl WatchList, src PriceSource, state AlertState, alertFn AlertFunc, logger *slog.Logger) *Engine {
	e := &Engine{
		cfg:       cfg,
		watchlist: wl,
		prices:    src,
		state:     state,
		alertFn:   alertFn,
		logger:    logger,
		assets:    make(map[string]AssetStatus),
	}
	if r, ok := wl.(NotificationRecorder); ok {
		e.recorder = r
	}
	return e
}

// GetStatus returns a copy of the latest per-asset observations.
func (e *Engine) GetStatus() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	assets := make(map[string]AssetStatus, len(e.assets))
	for k, v := range e.assets {
		assets[k] = v
	}
	return Status{
		Source:   e.prices.Name(),
		Interval: e.cfg.Interval.String(),
		LastTick: e.lastTick,
		TickID:   e.tickID,
		Assets:   assets,
	}
}

// Run ticks immediately and then every Interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("monitoring loop started", "interval", e.cfg.Interval, "source", e.prices.Name())
	e.tick(ctx)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("monitoring loop stopped")
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	tickID := uuid.NewString()
	log := e.logger.With("tick_id", tickID)

	defer func() {
		if r := recover(); r != nil {
			metrics.TicksTotal.WithLabelValues("error").Inc()
			log.Error("monitor tick panicked", "panic", r)
		}
	}()

	assets, err := e.watchlist.List(ctx)
	if err != nil {
		metrics.TicksTotal.WithLabelValues("error").Inc()
		log.Error("list watch list failed", "error", err)
		return
	}
	metrics.WatchedAssets.Set(float64(len(assets)))
	if len(assets) == 0 {
		metrics.TicksTotal.WithLabelValues("empty_watchlist").Inc()
		log.Debug("watch list empty")
		return
	}

	addresses := lo.Uniq(lo.Map(assets, func(a store.Asset, _ int) string { return a.Address }))
	prices, err := e.fetch(ctx, addresses)
	if err != nil {
		metrics.TicksTotal.WithLabelValues("fetch_failed").Inc()
		log.Warn("price fetch failed", "source", e.prices.Name(), "assets", len(addresses), "error", err)
		return
	}
	if len(prices) == 0 {
		metrics.TicksTotal.WithLabelValues("no_prices").Inc()
		log.Warn("price source returned no data", "source", e.prices.Name(), "assets", len(addresses))
		return
	}

	observed := make(map[string]AssetStatus, len(assets))
	for i := range assets {
		a := &assets[i]
		quote, ok := prices[a.Address]
		if !ok {
			log.Debug("no price for asset", "label", a.Label, "address", a.Address)
			continue
		}
		if err := e.processAsset(ctx, log, a, quote); err != nil {
			metrics.AssetErrorsTotal.WithLabelValues(a.Label).Inc()
			log.Error("evaluate asset failed", "label", a.Label, "error", err)
			continue
		}
		observed[a.Label] = AssetStatus{
			Label:      a.Label,
			Address:    a.Address,
			Value:      quote * e.cfg.Scale,
			HighPrice:  a.HighPrice,
			LowPrice:   a.LowPrice,
			ObservedAt: time.Now(),
		}
	}

	now := time.Now()
	e.mu.Lock()
	e.lastTick = now
	e.tickID = tickID
	e.assets = observed
	e.mu.Unlock()

	metrics.TicksTotal.WithLabelValues("ok").Inc()
	metrics.LastTickTimestamp.Set(float64(now.Unix()))
	log.Debug("tick complete", "assets", len(assets), "priced", len(observed))
}

func (e *Engine) fetch(ctx context.Context, addresses []string) (map[string]float64, error) {
	fetchCtx := ctx
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}
	start := time.Now()
	prices, err := e.prices.FetchPrices(fetchCtx, addresses)
	metrics.FetchDuration.WithLabelValues(e.prices.Name()).Observe(time.Since(start).Seconds())
	return prices, err
}

// processAsset runs new-high detection and retracement evaluation for one
// asset. Panics are converted to errors so one asset cannot stop the tick.
func (e *Engine) processAsset(ctx context.Context, log *slog.Logger, a *store.Asset, quote float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if math.IsNaN(quote) || math.IsInf(quote, 0) || quote < 0 {
		return fmt.Errorf("invalid quote %v", quote)
	}
	value := quote * e.cfg.Scale
	metrics.AssetValue.WithLabelValues(a.Label).Set(value)

	if value > a.HighPrice+e.cfg.NewHighEpsilon {
		if err := e.advanceHigh(ctx, log, a, value); err != nil {
			if errors.Is(err, errAssetGone) {
				log.Info("asset removed during tick", "label", a.Label)
				return nil
			}
			return err
		}
	}

	e.checkRetracements(ctx, log, a, value)
	return nil
}

// advanceHigh persists value as the new high, notifies, and re-arms
// retracement alerts for the asset.
func (e *Engine) advanceHigh(ctx context.Context, log *slog.Logger, a *store.Asset, value float64) error {
	ok, err := e.watchlist.UpdateRange(ctx, a.Label, value, a.LowPrice)
	if err != nil {
		return fmt.Errorf("persist new high: %w", err)
	}
	if !ok {
		return errAssetGone
	}
	prevHigh := a.HighPrice
	a.HighPrice = value

	metrics.NewHighsTotal.WithLabelValues(a.Label).Inc()
	log.Info("new high", "label", a.Label, "previous", prevHigh, "high", value)

	e.notify(ctx, log, store.Notification{
		ChatID:  e.cfg.ChatID,
		Label:   a.Label,
		Kind:    KindNewHigh,
		Value:   value,
		Message: newHighMessage(a.Label, value),
	})
	e.state.Clear(ctx, a.Label)
	return nil
}

// checkRetracements walks the retracement levels in declaration order and
// alerts on the first one within tolerance that was not the last level
// alerted for this asset. A repeated level is skipped, not terminal.
func (e *Engine) checkRetracements(ctx context.Context, log *slog.Logger, a *store.Asset, value float64) {
	levels := fib.Compute(a.HighPrice, a.LowPrice)
	if len(levels) == 0 {
		return
	}

	for _, l := range fib.Retracements {
		price := levels[l.Name]
		if !fib.WithinTolerance(value, price, e.cfg.Tolerance) {
			continue
		}
		if !e.state.ShouldAlert(ctx, a.Label, string(l.Name)) {
			metrics.AlertsDeduplicatedTotal.WithLabelValues(KindRetracement).Inc()
			continue
		}

		log.Info("retracement level reached", "label", a.Label, "level", l.Name, "level_price", price, "value", value)
		e.notify(ctx, log, store.Notification{
			ChatID:  e.cfg.ChatID,
			Label:   a.Label,
			Kind:    KindRetracement,
			Level:   string(l.Name),
			Value:   value,
			Message: retracementMessage(a.Label, value, l.Name),
		})
		e.state.Record(ctx, a.Label, string(l.Name))
		return
	}
}

// notify delivers best-effort: failures are logged and counted, never retried.
func (e *Engine) notify(ctx context.Context, log *slog.Logger, n store.Notification) {
	if e.alertFn == nil {
		log.Warn("no notifier configured, dropping alert", "label", n.Label, "kind", n.Kind)
		return
	}
	if err := e.alertFn(n.ChatID, n.Message); err != nil {
		metrics.AlertsFailedTotal.WithLabelValues(n.Kind).Inc()
		log.Error("send alert failed", "chat_id", n.ChatID, "label", n.Label, "kind", n.Kind, "error", err)
		return
	}
	metrics.AlertsSentTotal.WithLabelValues(n.Kind).Inc()

	if e.recorder != nil {
		if err := e.recorder.LogNotification(ctx, n); err != nil {
			log.Warn("log notification failed", "label", n.Label, "error", err)
		}
	}
}
