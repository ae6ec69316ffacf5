package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/beebalanced/valuation/internal/domain"
)

func records() []domain.Record {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Record{
		{
			Date:    date,
			Account: "alice",
			Tokens:  []domain.TokenValue{{Token: "SPS", Qty: decimal.NewFromInt(10), Value: decimal.RequireFromString("1.5")}},
			Omitted: []string{
				domain.ModuleLiquidityPool, domain.ModuleDeeds, domain.ModuleStakedDEC, domain.ModuleLandResources,
			},
		},
		{
			Date:    date,
			Account: "bob",
			Tokens:  []domain.TokenValue{{Token: "DEC", Qty: decimal.NewFromInt(1000), Value: decimal.NewFromInt(1)}},
			Omitted: []string{
				domain.ModuleLiquidityPool, domain.ModuleDeeds, domain.ModuleStakedDEC, domain.ModuleLandResources,
			},
		},
	}
}

func TestTable(t *testing.T) {
	table := Table(records())

	if len(table) != 3 {
		t.Fatalf("rows = %d, want 3", len(table))
	}
	header := table[0]
	want := []any{"date", "account_name", "sps_qty", "sps_value", "dec_qty", "dec_value"}
	if len(header) != len(want) {
		t.Fatalf("header = %v, want %v", header, want)
	}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %v, want %v", i, header[i], want[i])
		}
	}

	bob := table[2]
	if bob[0] != "2024-03-01" || bob[1] != "bob" {
		t.Errorf("bob row = %v", bob)
	}
	if bob[2] != 0.0 || bob[4] != 1000.0 {
		t.Errorf("bob values = %v", bob[2:])
	}
}

type failingWriter struct{}

func (failingWriter) Write(_ context.Context, _ string, _ [][]any) error {
	return errors.New("quota exceeded")
}

func TestExportWrapsWriterError(t *testing.T) {
	err := NewService(failingWriter{}, "").Export(context.Background(), records())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valuations.xlsx")

	if err := NewService(NewXLSXWriter(path), "").Export(context.Background(), records()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(DefaultSheet)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][1] != "account_name" || rows[1][1] != "alice" {
		t.Errorf("rows = %v", rows)
	}
	if rows[1][3] != "1.5" {
		t.Errorf("alice sps_value = %q, want 1.5", rows[1][3])
	}
}
