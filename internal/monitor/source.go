package monitor

import (
	"context"

	"github.com/web3-frozen/fib-monitor/internal/store"
)

// PriceSource defines the batch quote lookup the engine calls once per tick.
// To add a new source, implement this interface and select it in main.
type PriceSource interface {
	// Name returns a short identifier for logs and metrics (e.g., "api").
	Name() string

	// FetchPrices returns the latest unit price per address. Addresses the
	// source has no quote for are omitted. An empty input returns an empty
	// map without doing any I/O.
	FetchPrices(ctx context.Context, addresses []string) (map[string]float64, error)
}

// WatchList is the part of the asset registry the engine needs.
type WatchList interface {
	List(ctx context.Context) ([]store.Asset, error)
	UpdateRange(ctx context.Context, label string, high, low float64) (bool, error)
}

// AlertState remembers the last retracement level alerted per asset label.
type AlertState interface {
	ShouldAlert(ctx context.Context, label, level string) bool
	Record(ctx context.Context, label, level string)
	Clear(ctx context.Context, label string)
}

// NotificationRecorder is implemented by stores that keep an alert history.
type NotificationRecorder interface {
	LogNotification(ctx context.Context, n store.Notification) error
}
