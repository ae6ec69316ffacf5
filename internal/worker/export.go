package worker

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/portfolio"
)

// Valuer runs bulk valuations.
type Valuer interface {
	ValueAccounts(ctx context.Context, accounts []string) portfolio.Bulk
	MaxAccounts() int
}

// RecordExporter writes valuation records somewhere durable.
type RecordExporter interface {
	Export(ctx context.Context, records []domain.Record) error
}

// ExportWorker periodically values a fixed account list and exports the
// records.
type ExportWorker struct {
	valuer   Valuer
	exporter RecordExporter
	accounts []string
	interval time.Duration
}

// NewExportWorker creates a new ExportWorker.
func NewExportWorker(valuer Valuer, exporter RecordExporter, accounts []string, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		valuer:   valuer,
		exporter: exporter,
		accounts: accounts,
		interval: interval,
	}
}

// Run starts the export loop. It blocks until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context) {
	slog.Info("ExportWorker: starting", "accounts", len(w.accounts), "interval", w.interval)

	w.export(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ExportWorker: shutting down")
			return
		case <-ticker.C:
			w.export(ctx)
		}
	}
}

// ErrNothingToExport is returned when no known account produced a record.
var ErrNothingToExport = errors.New("nothing to export")

// Once values the accounts in batches that fit the bulk ceiling and exports
// the records of known players. It returns the number of records exported.
func (w *ExportWorker) Once(ctx context.Context) (int, error) {
	var records []domain.Record
	for batch := range slices.Chunk(w.accounts, max(w.valuer.MaxAccounts(), 1)) {
		records = append(records, w.valuer.ValueAccounts(ctx, batch).Records()...)
	}
	if len(records) == 0 {
		return 0, ErrNothingToExport
	}
	if err := w.exporter.Export(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (w *ExportWorker) export(ctx context.Context) {
	n, err := w.Once(ctx)
	switch {
	case errors.Is(err, ErrNothingToExport):
		slog.Warn("ExportWorker: nothing to export")
	case err != nil:
		slog.Error("ExportWorker: export failed", "error", err)
	default:
		slog.Info("ExportWorker: export completed", "records", n)
	}
}
