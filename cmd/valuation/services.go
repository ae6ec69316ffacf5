package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/collection"
	"github.com/beebalanced/valuation/internal/config"
	"github.com/beebalanced/valuation/internal/database"
	"github.com/beebalanced/valuation/internal/export"
	"github.com/beebalanced/valuation/internal/failover"
	"github.com/beebalanced/valuation/internal/hiveengine"
	"github.com/beebalanced/valuation/internal/land"
	"github.com/beebalanced/valuation/internal/ledger"
	"github.com/beebalanced/valuation/internal/peakmonsters"
	"github.com/beebalanced/valuation/internal/portfolio"
	"github.com/beebalanced/valuation/internal/price"
	"github.com/beebalanced/valuation/internal/restclient"
	"github.com/beebalanced/valuation/internal/splinterlands"
	"github.com/beebalanced/valuation/internal/token"
	"github.com/beebalanced/valuation/internal/validator"
)

// services holds the wired application graph.
type services struct {
	cfg        config.Config
	game       *splinterlands.Client
	hiveEngine *hiveengine.Client
	prices     *price.Service
	engine     *portfolio.Engine
	validator  *validator.Client
	// ledger is nil when no ledger database is configured.
	ledger  *ledger.Service
	closeDB func()
}

func newServices(ctx context.Context, cfg config.Config) (*services, error) {
	opts := restclient.Options{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.RestRetryMax,
		BaseDelay:  cfg.RestRetryBaseDelay,
		MaxDelay:   cfg.RestRetryMaxDelay,
		RateLimit:  cfg.RestRateLimit,
	}

	game := splinterlands.NewClient(
		restclient.NewClient("splinterlands", cfg.SplinterlandsURL, opts),
		restclient.NewClient("splinterlands-land", cfg.LandURL, opts),
		restclient.NewClient("splinterlands-prices", cfg.PricesURL, opts),
	)
	peak := peakmonsters.NewClient(restclient.NewClient("peakmonsters", cfg.PeakMonstersURL, opts))
	holders := validator.NewClient(restclient.NewClient("validator", cfg.ValidatorURL, opts))

	policy := failover.Policy{
		Attempts:   cfg.FailoverAttempts,
		Backoff:    cfg.FailoverBackoff,
		Multiplier: cfg.FailoverBackoffMultiplier,
	}
	engineNodes := hiveengine.NewClient(failover.NewPool("hive-engine", cfg.HiveEngineNodes), policy, cfg.HTTPTimeout)

	prices := price.NewService(game, peak, game, cfg.MarketRefreshInterval)
	engine := portfolio.NewEngine(
		prices,
		collection.NewValuer(game),
		token.NewValuer(game, engineNodes, cfg.Tokens, decimal.NewFromFloat(cfg.CreditsUSDRate)),
		land.NewValuer(game, engineNodes, decimal.NewFromFloat(cfg.LandSwapFee)),
		game,
		cfg.MaxBulkAccounts,
	)

	s := &services{
		cfg:        cfg,
		game:       game,
		hiveEngine: engineNodes,
		prices:     prices,
		engine:     engine,
		validator:  holders,
		closeDB:    func() {},
	}

	if cfg.LedgerDatabaseURL == "" {
		slog.Info("LEDGER_DATABASE_URL not set, ledger queries disabled")
		return s, nil
	}
	pool, err := database.Connect(ctx, cfg.LedgerDatabaseURL, 0)
	if err != nil {
		return nil, fmt.Errorf("connecting to ledger database: %w", err)
	}
	s.ledger = ledger.NewService(ledger.NewPgStore(pool), cfg.LedgerBatchSize)
	s.closeDB = pool.Close
	return s, nil
}

// exporter returns the configured record exporter: Google Sheets when a
// spreadsheet is configured, otherwise an XLSX file at xlsxPath.
func (s *services) exporter(ctx context.Context, xlsxPath string) (*export.Service, error) {
	if xlsxPath == "" && s.cfg.SheetsSpreadsheetID != "" {
		writer, err := export.NewSheetsWriter(ctx, s.cfg.SheetsSpreadsheetID, s.cfg.SheetsCredentials)
		if err != nil {
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		return export.NewService(writer, s.cfg.ExportSheet), nil
	}
	if xlsxPath == "" {
		xlsxPath = s.cfg.ExportXLSXPath
	}
	if xlsxPath == "" {
		return nil, errors.New("no export target: set SHEETS_SPREADSHEET_ID or EXPORT_XLSX_PATH")
	}
	return export.NewService(export.NewXLSXWriter(xlsxPath), s.cfg.ExportSheet), nil
}
