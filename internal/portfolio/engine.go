// Package portfolio composes the collection, token and land valuers into a
// single per-account valuation record.
package portfolio

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/collection"
	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/price"
)

// DefaultMaxAccounts is the bulk valuation ceiling.
const DefaultMaxAccounts = 5

// Prices provides the card price book and USD reference rates.
type Prices interface {
	Book(ctx context.Context) *price.Book
	Rates(ctx context.Context) (domain.FiatPrices, bool)
}

// CollectionValuer values card collections.
type CollectionValuer interface {
	Value(ctx context.Context, account string, book collection.PriceBook) []domain.EditionValue
}

// TokenValuer values token balances and the liquidity pool position.
type TokenValuer interface {
	Tokens(ctx context.Context, account string, hiveUSD decimal.Decimal) []domain.TokenValue
	LiquidityPool(ctx context.Context, account string, hiveUSD decimal.Decimal) domain.LiquidityPoolValue
}

// LandValuer values deeds, staked DEC and land resources.
type LandValuer interface {
	Deeds(ctx context.Context, account string) domain.DeedsValue
	StakedDEC(ctx context.Context, account string, hiveUSD decimal.Decimal) domain.StakedDECValue
	Resources(ctx context.Context, account string, decUSD decimal.Decimal) decimal.Decimal
}

// PlayerChecker reports whether the card game knows an account.
type PlayerChecker interface {
	PlayerExists(ctx context.Context, name string) bool
}

// Engine runs every valuation module for an account.
type Engine struct {
	prices      Prices
	collection  CollectionValuer
	tokens      TokenValuer
	land        LandValuer
	players     PlayerChecker
	maxAccounts int
	now         func() time.Time
}

// NewEngine creates a valuation engine. A non-positive maxAccounts selects
// DefaultMaxAccounts.
func NewEngine(prices Prices, collection CollectionValuer, tokens TokenValuer, land LandValuer, players PlayerChecker, maxAccounts int) *Engine {
	if prices == nil || collection == nil || tokens == nil || land == nil || players == nil {
		panic("portfolio: dependencies must not be nil")
	}
	if maxAccounts <= 0 {
		maxAccounts = DefaultMaxAccounts
	}
	return &Engine{
		prices:      prices,
		collection:  collection,
		tokens:      tokens,
		land:        land,
		players:     players,
		maxAccounts: maxAccounts,
		now:         time.Now,
	}
}

// MaxAccounts returns the bulk valuation ceiling.
func (e *Engine) MaxAccounts() int {
	return e.maxAccounts
}

func (e *Engine) valuationDate() time.Time {
	return e.now().UTC().Truncate(24 * time.Hour)
}

// Value computes account's valuation record. A module that fails or panics
// is logged and listed in Record.Omitted; the rest of the record is kept.
func (e *Engine) Value(ctx context.Context, account string) domain.Record {
	r := domain.Record{Date: e.valuationDate(), Account: account}

	rates, ok := e.prices.Rates(ctx)
	if !ok {
		slog.Warn("fiat prices unavailable, USD values will be zero", "account", account)
	}
	book := e.prices.Book(ctx)

	e.run(ctx, &r, domain.ModuleCollection, func() {
		r.Editions = e.collection.Value(ctx, account, book)
	})
	e.run(ctx, &r, domain.ModuleTokens, func() {
		r.Tokens = e.tokens.Tokens(ctx, account, rates.HiveUSD)
	})
	e.run(ctx, &r, domain.ModuleLiquidityPool, func() {
		r.LiquidityPool = e.tokens.LiquidityPool(ctx, account, rates.HiveUSD)
	})
	e.run(ctx, &r, domain.ModuleDeeds, func() {
		r.Deeds = e.land.Deeds(ctx, account)
	})
	e.run(ctx, &r, domain.ModuleStakedDEC, func() {
		r.StakedDEC = e.land.StakedDEC(ctx, account, rates.HiveUSD)
	})
	e.run(ctx, &r, domain.ModuleLandResources, func() {
		r.LandResourcesValue = e.land.Resources(ctx, account, rates.DECUSD)
	})

	list, market := r.CollectionTotals()
	slog.Info("account valued",
		"account", account,
		"total_usd", r.TotalValue().StringFixed(2),
		"collection_market_usd", market.StringFixed(2),
		"collection_list_usd", list.StringFixed(2),
		"omitted", r.Omitted)
	return r
}

func (e *Engine) run(ctx context.Context, r *domain.Record, module string, fn func()) {
	if err := e.safely(ctx, fn); err != nil {
		slog.Error("valuation module failed, contribution omitted",
			"account", r.Account, "module", module, "error", err)
		r.Omitted = append(r.Omitted, module)
	}
}

func (e *Engine) safely(ctx context.Context, fn func()) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	fn()
	return nil
}

// AccountValuation is one account's outcome in a bulk run. Known is false for
// accounts the card game does not recognise; their Record is empty.
type AccountValuation struct {
	Account string
	Known   bool
	Record  domain.Record
}

// Bulk is the outcome of a multi-account request. When Skipped is true the
// request exceeded the ceiling, Reason explains why and Results is nil.
type Bulk struct {
	Skipped  bool
	Reason   string
	Accounts []string
	Results  iter.Seq[AccountValuation]
}

// ValueAccounts admits a bulk valuation. The returned Results sequence values
// accounts one at a time when iterated and may be iterated again.
func (e *Engine) ValueAccounts(ctx context.Context, accounts []string) Bulk {
	if len(accounts) > e.maxAccounts {
		reason := fmt.Sprintf("%d accounts requested, at most %d can be valued at once", len(accounts), e.maxAccounts)
		slog.Warn("bulk valuation skipped", "accounts", len(accounts), "max", e.maxAccounts)
		return Bulk{Skipped: true, Reason: reason, Accounts: accounts}
	}

	results := func(yield func(AccountValuation) bool) {
		for _, account := range accounts {
			if ctx.Err() != nil {
				return
			}
			v := AccountValuation{Account: account}
			if e.players.PlayerExists(ctx, account) {
				v.Known = true
				v.Record = e.Value(ctx, account)
			} else {
				slog.Info("not a card game account, skipping", "account", account)
				v.Record = domain.Record{Date: e.valuationDate(), Account: account}
			}
			if !yield(v) {
				return
			}
		}
	}
	return Bulk{Accounts: accounts, Results: results}
}

// Records drains b and returns the records of known accounts.
func (b Bulk) Records() []domain.Record {
	if b.Results == nil {
		return nil
	}
	var records []domain.Record
	for v := range b.Results {
		if v.Known {
			records = append(records, v.Record)
		}
	}
	return records
}
