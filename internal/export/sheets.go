package export

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsWriter writes tables to a Google spreadsheet.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter authenticates with service account credentials JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures sheet exists, then clears and rewrites it with table.
func (w *SheetsWriter) Write(ctx context.Context, sheet string, table [][]any) error {
	if err := w.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	_, err := w.svc.Spreadsheets.Values.Clear(
		w.spreadsheetID,
		sheet,
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheet %s: %w", sheet, err)
	}

	_, err = w.svc.Spreadsheets.Values.Update(
		w.spreadsheetID,
		sheet+"!A1",
		&sheets.ValueRange{Values: table},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheet %s: %w", sheet, err)
	}

	return nil
}

// ensureSheet adds sheet to the spreadsheet when it is missing.
func (w *SheetsWriter) ensureSheet(ctx context.Context, sheet string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	exists := slices.ContainsFunc(spreadsheet.Sheets, func(s *sheets.Sheet) bool {
		return s.Properties != nil && s.Properties.Title == sheet
	})
	if exists {
		return nil
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheet}},
		}}},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("adding sheet %s: %w", sheet, err)
	}
	return nil
}
