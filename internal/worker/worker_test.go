package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/portfolio"
)

type mockRefresher struct {
	callCount atomic.Int32
	err       error
}

func (m *mockRefresher) Refresh(_ context.Context) error {
	m.callCount.Add(1)
	return m.err
}

func TestMarketWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockRefresher{}
	w := NewMarketWorker(mock, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Initial refresh plus some ticks.
	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2", got)
	}
}

func TestMarketWorkerSurvivesErrors(t *testing.T) {
	mock := &mockRefresher{err: errors.New("no card prices available")}
	w := NewMarketWorker(mock, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2", got)
	}
}

type mockValuer struct {
	mu      sync.Mutex
	batches [][]string
}

func (m *mockValuer) MaxAccounts() int {
	return 2
}

func (m *mockValuer) ValueAccounts(_ context.Context, accounts []string) portfolio.Bulk {
	m.mu.Lock()
	m.batches = append(m.batches, accounts)
	m.mu.Unlock()

	results := func(yield func(portfolio.AccountValuation) bool) {
		for _, a := range accounts {
			if !yield(portfolio.AccountValuation{Account: a, Known: a != "ghost", Record: domain.Record{Account: a}}) {
				return
			}
		}
	}
	return portfolio.Bulk{Accounts: accounts, Results: results}
}

type mockExporter struct {
	mu      sync.Mutex
	exports [][]domain.Record
}

func (m *mockExporter) Export(_ context.Context, records []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports = append(m.exports, records)
	return nil
}

func TestExportWorkerBatchesUnderCeiling(t *testing.T) {
	valuer := &mockValuer{}
	exporter := &mockExporter{}
	w := NewExportWorker(valuer, exporter, []string{"a", "b", "ghost", "c", "d"}, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	valuer.mu.Lock()
	defer valuer.mu.Unlock()
	if len(valuer.batches) != 3 {
		t.Fatalf("batches = %v, want 3", valuer.batches)
	}

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	if len(exporter.exports) != 1 {
		t.Fatalf("exports = %d, want 1", len(exporter.exports))
	}
	if got := len(exporter.exports[0]); got != 4 {
		t.Errorf("records = %d, want 4 (ghost excluded)", got)
	}
}

func TestExportWorkerNothingToExport(t *testing.T) {
	exporter := &mockExporter{}
	w := NewExportWorker(&mockValuer{}, exporter, nil, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if len(exporter.exports) != 0 {
		t.Errorf("exports = %d, want 0", len(exporter.exports))
	}
}

type failingExporter struct{}

func (failingExporter) Export(_ context.Context, _ []domain.Record) error {
	return errors.New("quota exceeded")
}

func TestExportWorkerOnce(t *testing.T) {
	tests := []struct {
		name     string
		accounts []string
		exporter RecordExporter
		want     int
		wantErr  bool
	}{
		{"exports known players", []string{"a", "ghost", "b"}, &mockExporter{}, 2, false},
		{"only unknown players", []string{"ghost"}, &mockExporter{}, 0, true},
		{"exporter failure", []string{"a"}, failingExporter{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewExportWorker(&mockValuer{}, tt.exporter, tt.accounts, time.Hour)

			n, err := w.Once(context.Background())

			if n != tt.want {
				t.Errorf("exported = %d, want %d", n, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExportWorkerOnceNothingToExport(t *testing.T) {
	w := NewExportWorker(&mockValuer{}, &mockExporter{}, []string{"ghost"}, time.Hour)

	if _, err := w.Once(context.Background()); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("error = %v, want ErrNothingToExport", err)
	}
}
