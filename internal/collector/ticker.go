package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/coder/websocket"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/fib-monitor/internal/metrics"
)

const (
	binanceStreamURL = "wss://stream.binance.com:9443/ws/!miniTicker@arr"
	reconnectBase    = 2 * time.Second
	reconnectMax     = 60 * time.Second
	pruneEvery       = time.Minute
	DefaultMaxAge    = 2 * time.Minute
)

type miniTicker struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

type quote struct {
	price float64
	at    time.Time
}

// Ticker keeps the latest Binance spot price of every symbol from the
// all-market mini-ticker stream. It serves as a price source: addresses are
// exchange symbols, and quotes older than the max age are treated as
// missing.
type Ticker struct {
	url    string
	maxAge time.Duration
	rest   *binance.Client
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	quotes map[string]quote
}

func NewTicker(maxAge time.Duration, logger *slog.Logger) *Ticker {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Ticker{
		url:    binanceStreamURL,
		maxAge: maxAge,
		rest:   binance.NewClient("", ""),
		logger: logger,
		now:    time.Now,
		quotes: make(map[string]quote),
	}
}

func (t *Ticker) Name() string { return "stream" }

// FetchPrices answers from the cache without network I/O.
func (t *Ticker) FetchPrices(_ context.Context, addresses []string) (map[string]float64, error) {
	out := make(map[string]float64, len(addresses))
	cutoff := t.now().Add(-t.maxAge)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, addr := range addresses {
		q, ok := t.quotes[strings.ToUpper(addr)]
		if !ok || q.at.Before(cutoff) {
			continue
		}
		out[addr] = q.price
	}
	return out, nil
}

// Run starts the stream. Blocks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	go t.pruneLoop(ctx)

	// Seed from REST so the first ticks have data before the stream delivers.
	t.backfill(ctx)

	t.logger.Info("price stream starting", "url", t.url, "max_age", t.maxAge)

	backoff := reconnectBase
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		connected, err := t.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		backoff = nextBackoff(backoff, connected)

		metrics.StreamReconnectsTotal.Inc()
		t.logger.Warn("binance ws disconnected, reconnecting...", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = time.Duration(math.Min(float64(backoff*2), float64(reconnectMax)))
	}
}

// nextBackoff returns the delay before the next reconnect. A session that got
// past the dial starts again from reconnectBase.
func nextBackoff(cur time.Duration, connected bool) time.Duration {
	if connected {
		return reconnectBase
	}
	return cur
}

func (t *Ticker) backfill(ctx context.Context) {
	prices, err := t.rest.NewListPricesService().Do(ctx)
	if err != nil {
		t.logger.Warn("price backfill failed", "error", err)
		return
	}
	now := t.now()
	t.mu.Lock()
	for _, p := range prices {
		if v, ok := parsePrice(p.Price); ok {
			t.quotes[p.Symbol] = quote{price: v, at: now}
		}
	}
	n := len(t.quotes)
	t.mu.Unlock()

	metrics.StreamSymbols.Set(float64(n))
	t.logger.Info("backfilled prices", "symbols", n)
}

// connectAndRead reports whether the dial succeeded along with the error that
// ended the session.
func (t *Ticker) connectAndRead(ctx context.Context) (bool, error) {
	conn, _, err := websocket.Dial(ctx, t.url, nil)
	if err != nil {
		return false, fmt.Errorf("ws dial: %w", err)
	}
	defer conn.CloseNow() //nolint:errcheck

	// The all-market array is large; the default 32KiB read limit is too small.
	conn.SetReadLimit(8 << 20)
	t.logger.Info("binance ws connected")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return true, fmt.Errorf("ws read: %w", err)
		}
		t.handleMessage(data)
	}
}

func (t *Ticker) handleMessage(data []byte) {
	var msgs []miniTicker
	if err := json.Unmarshal(data, &msgs); err != nil {
		var single miniTicker
		if err := json.Unmarshal(data, &single); err != nil {
			return
		}
		msgs = []miniTicker{single}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range msgs {
		if m.Event != "24hrMiniTicker" || m.Symbol == "" {
			continue
		}
		v, ok := parsePrice(m.Close)
		if !ok {
			continue
		}
		at := t.now()
		if m.EventTime > 0 {
			at = time.UnixMilli(m.EventTime)
		}
		t.quotes[strings.ToUpper(m.Symbol)] = quote{price: v, at: at}
	}
}

func (t *Ticker) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.prune(); n > 0 {
				t.logger.Debug("pruned stale prices", "removed", n)
			}
		}
	}
}

// prune drops quotes older than the max age and returns how many went.
func (t *Ticker) prune() int {
	cutoff := t.now().Add(-t.maxAge)
	t.mu.Lock()
	removed := 0
	for s, q := range t.quotes {
		if q.at.Before(cutoff) {
			delete(t.quotes, s)
			removed++
		}
	}
	n := len(t.quotes)
	t.mu.Unlock()

	metrics.StreamSymbols.Set(float64(n))
	return removed
}

func parsePrice(s string) (float64, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return d.InexactFloat64(), true
}
