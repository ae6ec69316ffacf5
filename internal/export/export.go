// Package export writes valuation records as wide tables to spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
)

// DefaultSheet is the sheet name used when none is given.
const DefaultSheet = "valuations"

// SheetWriter writes a table to a named sheet, replacing its contents.
type SheetWriter interface {
	Write(ctx context.Context, sheet string, table [][]any) error
}

// Table builds the wide valuation table: a header of date, account_name and
// the union of record columns, then one row per record. Columns a record
// lacks are written as zero.
func Table(records []domain.Record) [][]any {
	names := domain.ColumnUnion(records)

	header := append([]any{"date", "account_name"}, lo.ToAnySlice(names)...)
	table := make([][]any, 0, len(records)+1)
	table = append(table, header)

	for _, r := range records {
		row := make([]any, 0, len(header))
		row = append(row, r.Date.Format("2006-01-02"), r.Account)
		row = append(row, lo.Map(r.Row(names), func(d decimal.Decimal, _ int) any { return toFloat(d) })...)
		table = append(table, row)
	}
	return table
}

// Service writes valuation records to one sheet.
type Service struct {
	writer SheetWriter
	sheet  string
}

// NewService creates an export service. An empty sheet selects DefaultSheet.
func NewService(writer SheetWriter, sheet string) *Service {
	if writer == nil {
		panic("export: writer must not be nil")
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Service{writer: writer, sheet: sheet}
}

// Export replaces the sheet's contents with records.
func (s *Service) Export(ctx context.Context, records []domain.Record) error {
	table := Table(records)
	if err := s.writer.Write(ctx, s.sheet, table); err != nil {
		return fmt.Errorf("exporting %d records: %w", len(records), err)
	}
	slog.Info("valuations exported", "sheet", s.sheet, "records", len(records), "columns", len(table[0]))
	return nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
