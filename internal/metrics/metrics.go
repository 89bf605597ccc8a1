package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fib_monitor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fib_monitor",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Monitor loop metrics ───────────────────────────────────────────────

var (
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "tick",
		Name:      "total",
		Help:      "Monitor ticks by outcome (ok, empty_watchlist, fetch_failed, no_prices, error).",
	}, []string{"status"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fib_monitor",
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Duration of the batch price fetch in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	LastTickTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fib_monitor",
		Subsystem: "tick",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last tick that evaluated prices.",
	})

	WatchedAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fib_monitor",
		Subsystem: "watchlist",
		Name:      "assets",
		Help:      "Number of assets in the watch list at the last tick.",
	})

	AssetValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fib_monitor",
		Subsystem: "asset",
		Name:      "value",
		Help:      "Last observed scaled value per asset.",
	}, []string{"label"})

	AssetErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "asset",
		Name:      "errors_total",
		Help:      "Errors while evaluating a single asset.",
	}, []string{"label"})

	NewHighsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "asset",
		Name:      "new_highs_total",
		Help:      "New highs detected per asset.",
	}, []string{"label"})
)

// ── Alert delivery metrics ─────────────────────────────────────────────

var (
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total alerts successfully delivered.",
	}, []string{"type"})

	AlertsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Total alert delivery failures.",
	}, []string{"type"})

	AlertsDeduplicatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "alerts",
		Name:      "deduplicated_total",
		Help:      "Total retracement alerts suppressed because the level already fired.",
	}, []string{"type"})
)

// ── Price stream metrics ───────────────────────────────────────────────

var (
	StreamReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fib_monitor",
		Subsystem: "stream",
		Name:      "reconnects_total",
		Help:      "Websocket price stream reconnect attempts.",
	})

	StreamSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fib_monitor",
		Subsystem: "stream",
		Name:      "symbols",
		Help:      "Symbols with a cached price from the websocket stream.",
	})
)
