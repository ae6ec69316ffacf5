package worker

import (
	"context"
	"log/slog"
	"time"
)

// MarketRefresher rebuilds cached market data.
type MarketRefresher interface {
	Refresh(ctx context.Context) error
}

// MarketWorker periodically refreshes card prices and fiat rates so that
// valuations read a warm cache.
type MarketWorker struct {
	refresher MarketRefresher
	interval  time.Duration
}

// NewMarketWorker creates a new MarketWorker.
func NewMarketWorker(refresher MarketRefresher, interval time.Duration) *MarketWorker {
	return &MarketWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// Run starts the refresh loop. It blocks until the context is cancelled.
func (w *MarketWorker) Run(ctx context.Context) {
	slog.Info("MarketWorker: starting", "interval", w.interval)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("MarketWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *MarketWorker) refresh(ctx context.Context) {
	if err := w.refresher.Refresh(ctx); err != nil {
		slog.Error("MarketWorker: refresh failed", "error", err)
		return
	}
	slog.Info("MarketWorker: refresh completed")
}
