package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/beebalanced/valuation/internal/api"
	"github.com/beebalanced/valuation/internal/config"
	"github.com/beebalanced/valuation/internal/ledger"
	"github.com/beebalanced/valuation/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	app := &cli.App{
		Name:  "valuation",
		Usage: "value Splinterlands accounts and query the Hive ledger",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API with market refresh and scheduled export",
				Action: withServices(cfg, serve),
			},
			{
				Name:      "value",
				Usage:     "value accounts and print the records as JSON",
				ArgsUsage: "ACCOUNT...",
				Action:    withServices(cfg, value),
			},
			{
				Name:      "export",
				Usage:     "value accounts and write them to a spreadsheet",
				ArgsUsage: "[ACCOUNT...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "xlsx", Usage: "write to this workbook instead of Google Sheets"},
				},
				Action: withServices(cfg, exportRecords),
			},
			{
				Name:  "ledger",
				Usage: "query the Hive social ledger",
				Subcommands: []*cli.Command{
					{
						Name:      "accounts",
						Usage:     "print balances and staking figures",
						ArgsUsage: "NAME...",
						Action:    withServices(cfg, ledgerAccounts),
					},
					{
						Name:  "filter",
						Usage: "find accounts within HP, reputation and reward bounds",
						Flags: []cli.Flag{
							&cli.Float64Flag{Name: "hp-min"},
							&cli.Float64Flag{Name: "hp-max", Value: 1e12},
							&cli.Float64Flag{Name: "rep-min", Value: 25},
							&cli.Float64Flag{Name: "rep-max", Value: 100},
							&cli.Float64Flag{Name: "rewards-min"},
							&cli.Float64Flag{Name: "rewards-max", Value: 1e12},
							&cli.IntFlag{Name: "months", Value: 1},
							&cli.IntFlag{Name: "min-comments"},
						},
						Action: withServices(cfg, ledgerFilter),
					},
					{
						Name:  "top",
						Usage: "print the accounts with the most author rewards",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "n", Value: 100},
							&cli.Float64Flag{Name: "min"},
						},
						Action: withServices(cfg, ledgerTop),
					},
					{
						Name:  "active",
						Usage: "print accounts with recent comment activity",
						Flags: []cli.Flag{
							&cli.Float64Flag{Name: "min-rewards"},
							&cli.IntFlag{Name: "min-comments", Value: 10},
							&cli.IntFlag{Name: "months", Value: 1},
						},
						Action: withServices(cfg, ledgerActive),
					},
					{
						Name:      "commentators",
						Usage:     "print the authors of replies to posts",
						ArgsUsage: "PERMLINK...",
						Action:    withServices(cfg, ledgerCommentators),
					},
					{
						Name:      "history",
						Usage:     "print balance history",
						ArgsUsage: "NAME...",
						Action:    withServices(cfg, ledgerHistory),
					},
				},
			},
			{
				Name:      "player",
				Usage:     "print a player's game details",
				ArgsUsage: "NAME",
				Action:    withServices(cfg, playerDetails),
			},
			{
				Name:   "settings",
				Usage:  "print the game settings document",
				Action: withServices(cfg, gameSettings),
			},
			{
				Name:      "engine-balances",
				Usage:     "print an account's Hive-Engine token balances",
				ArgsUsage: "ACCOUNT [SYMBOL...]",
				Action:    withServices(cfg, engineBalances),
			},
			{
				Name:      "richlist",
				Usage:     "print the top holders of a token",
				ArgsUsage: "TOKEN",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 100, Usage: "number of holders"},
				},
				Action: withServices(cfg, richList),
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func withServices(cfg config.Config, fn func(*cli.Context, *services) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := newServices(c.Context, cfg)
		if err != nil {
			return err
		}
		defer s.closeDB()
		return fn(c, s)
	}
}

func serve(c *cli.Context, s *services) error {
	ctx, stop := context.WithCancel(c.Context)
	defer stop()

	go worker.NewMarketWorker(s.prices, s.cfg.MarketRefreshInterval).Run(ctx)

	if len(s.cfg.ExportAccounts) > 0 {
		exporter, err := s.exporter(ctx, "")
		if err != nil {
			slog.Warn("scheduled export disabled", "error", err)
		} else {
			go worker.NewExportWorker(s.engine, exporter, s.cfg.ExportAccounts, s.cfg.ExportInterval).Run(ctx)
		}
	}

	if s.cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, market refresh endpoint is unprotected")
	}

	var ledgerReader api.LedgerReader
	if s.ledger != nil {
		ledgerReader = s.ledger
	}
	handler := api.NewHandler(s.engine, s.game, s.validator, ledgerReader, s.prices)
	srv := api.NewServer(s.cfg.HTTPPort, handler, s.cfg.AdminAPIKey)

	go func() {
		slog.Info("HTTP server listening", "port", s.cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", "hive_engine_node", s.hiveEngine.Endpoints().Preferred())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

func value(c *cli.Context, s *services) error {
	accounts := c.Args().Slice()
	if len(accounts) == 0 {
		return errors.New("at least one account is required")
	}

	bulk := s.engine.ValueAccounts(c.Context, accounts)
	if bulk.Skipped {
		return errors.New(bulk.Reason)
	}
	for v := range bulk.Results {
		if !v.Known {
			slog.Warn("player not found", "account", v.Account)
			continue
		}
		if err := printJSON(v.Record); err != nil {
			return err
		}
	}
	return nil
}

func exportRecords(c *cli.Context, s *services) error {
	accounts := c.Args().Slice()
	if len(accounts) == 0 {
		accounts = s.cfg.ExportAccounts
	}
	if len(accounts) == 0 {
		return errors.New("no accounts given and EXPORT_ACCOUNTS is empty")
	}

	exporter, err := s.exporter(c.Context, c.String("xlsx"))
	if err != nil {
		return err
	}
	n, err := worker.NewExportWorker(s.engine, exporter, accounts, s.cfg.ExportInterval).Once(c.Context)
	if err != nil {
		return err
	}
	slog.Info("export completed", "records", n)
	return nil
}

var errNoLedger = errors.New("LEDGER_DATABASE_URL is required")

func ledgerAccounts(c *cli.Context, s *services) error {
	if s.ledger == nil {
		return errNoLedger
	}
	accounts, err := s.ledger.Accounts(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	return printJSON(accounts)
}

func ledgerFilter(c *cli.Context, s *services) error {
	if s.ledger == nil {
		return errNoLedger
	}
	accounts, err := s.ledger.FilterAccounts(c.Context, ledger.AccountFilter{
		HPMin:             c.Float64("hp-min"),
		HPMax:             c.Float64("hp-max"),
		ReputationMin:     c.Float64("rep-min"),
		ReputationMax:     c.Float64("rep-max"),
		PostingRewardsMin: c.Float64("rewards-min"),
		PostingRewardsMax: c.Float64("rewards-max"),
		Months:            c.Int("months"),
		MinComments:       c.Int("min-comments"),
	})
	if err != nil {
		return err
	}
	return printJSON(accounts)
}

func ledgerTop(c *cli.Context, s *services) error {
	if s.ledger == nil {
		return errNoLedger
	}
	rows, err := s.ledger.TopPostingRewards(c.Context, c.Int("n"), c.Float64("min"))
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func ledgerActive(c *cli.Context, s *services) error {
	if s.ledger == nil {
		return errNoLedger
	}
	rows, err := s.ledger.ActiveUsers(c.Context, c.Float64("min-rewards"), c.Int("min-comments"), c.Int("months"))
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func ledgerCommentators(c *cli.Context, s *services) error {
	if s.ledger == nil {
		return errNoLedger
	}
	return printJSON(s.ledger.Commentators(c.Context, c.Args().Slice()))
}

func ledgerHistory(c *cli.Context, s *services) error {
	if s.ledger == nil {
		return errNoLedger
	}
	return printJSON(s.ledger.BalanceHistory(c.Context, c.Args().Slice()))
}

func playerDetails(c *cli.Context, s *services) error {
	if c.NArg() != 1 {
		return errors.New("exactly one player name is required")
	}
	details := s.game.PlayerDetails(c.Context, c.Args().First())
	if details == nil {
		return fmt.Errorf("player %s not found", c.Args().First())
	}
	return printJSON(details)
}

func gameSettings(c *cli.Context, s *services) error {
	return printJSON(s.game.Settings(c.Context))
}

func engineBalances(c *cli.Context, s *services) error {
	if c.NArg() < 1 {
		return errors.New("an account is required")
	}
	args := c.Args().Slice()
	return printJSON(s.hiveEngine.AccountBalances(c.Context, args[0], args[1:]...))
}

func richList(c *cli.Context, s *services) error {
	if c.NArg() != 1 {
		return errors.New("exactly one token is required")
	}
	return printJSON(s.validator.RichList(c.Context, strings.ToUpper(c.Args().First()), c.Int("limit")))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
