// Package token values in-game token balances and the DEC:SPS liquidity
// pool position.
package token

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/price"
)

const (
	// Credits has no exchange market and is valued at a fixed USD rate.
	Credits = "CREDITS"

	// PoolPair is the valued liquidity pool; its base asset is DEC.
	PoolPair = "DEC:SPS"
)

// DefaultCreditsRate is the USD value of one CREDIT.
var DefaultCreditsRate = decimal.RequireFromString("0.001")

// DefaultTokens lists the balances valued by default.
var DefaultTokens = []string{
	"SPS", "SPSP", "DEC", "DEC-B", "LICENSE", "PLOT", "TRACT", "REGION",
	"VOUCHER", "VOUCHER-G", Credits, "DICE",
}

var marketAliases = map[string]string{
	"SPSP":      "SPS",
	"DICE":      "SLDICE",
	"VOUCHER-G": "VOUCHER",
}

// MarketSymbol returns the exchange symbol a token is priced from.
func MarketSymbol(token string) string {
	if alias, ok := marketAliases[token]; ok {
		return alias
	}
	return token
}

// BalanceSource provides in-game token balances.
type BalanceSource interface {
	Balances(ctx context.Context, player string, filter ...string) []domain.TokenBalance
}

// Exchange provides token markets and liquidity pools.
type Exchange interface {
	Market(ctx context.Context, symbol string) (domain.Market, error)
	LiquidityPosition(ctx context.Context, account, tokenPair string) *domain.LiquidityPosition
	Pool(ctx context.Context, tokenPair string) domain.LiquidityPool
}

// Valuer computes token values.
type Valuer struct {
	balances    BalanceSource
	exchange    Exchange
	tokens      []string
	creditsRate decimal.Decimal
}

// NewValuer creates a token valuer. Empty tokens or a non-positive
// creditsRate select the defaults.
func NewValuer(balances BalanceSource, exchange Exchange, tokens []string, creditsRate decimal.Decimal) *Valuer {
	if balances == nil || exchange == nil {
		panic("token: dependencies must not be nil")
	}
	if len(tokens) == 0 {
		tokens = DefaultTokens
	}
	if !creditsRate.IsPositive() {
		creditsRate = DefaultCreditsRate
	}
	return &Valuer{balances: balances, exchange: exchange, tokens: tokens, creditsRate: creditsRate}
}

// Tokens values account's balances at the highest bid converted to USD,
// rounded to cents. Zero balances are skipped; a token without a market
// keeps its quantity with a zero value.
func (v *Valuer) Tokens(ctx context.Context, account string, hiveUSD decimal.Decimal) []domain.TokenValue {
	var values []domain.TokenValue
	for _, b := range v.balances.Balances(ctx, account, v.tokens...) {
		if b.Balance.IsZero() {
			continue
		}

		if strings.EqualFold(b.Token, Credits) {
			values = append(values, domain.TokenValue{
				Token: b.Token,
				Qty:   b.Balance,
				Value: domain.RoundCents(b.Balance.Mul(v.creditsRate)),
			})
			continue
		}

		symbol := MarketSymbol(b.Token)
		market, err := v.exchange.Market(ctx, symbol)
		if err != nil {
			slog.Warn("token market unavailable, valued at zero",
				"account", account, "token", b.Token, "symbol", symbol, "error", err)
			values = append(values, domain.TokenValue{Token: b.Token, Qty: b.Balance, Value: decimal.Zero})
			continue
		}

		quote := price.ExchangeQuote(market)
		values = append(values, domain.TokenValue{
			Token: b.Token,
			Qty:   b.Balance,
			Value: domain.RoundCents(quote.Price.Mul(hiveUSD).Mul(b.Balance)),
		})
	}
	return values
}

// LiquidityPool values account's share of the DEC:SPS pool as twice the DEC
// side at the DEC last price.
func (v *Valuer) LiquidityPool(ctx context.Context, account string, hiveUSD decimal.Decimal) domain.LiquidityPoolValue {
	zero := domain.LiquidityPoolValue{DECQty: decimal.Zero, SPSQty: decimal.Zero, Value: decimal.Zero}

	pos := v.exchange.LiquidityPosition(ctx, account, PoolPair)
	if pos == nil || pos.Shares.IsZero() {
		return zero
	}

	pool := v.exchange.Pool(ctx, PoolPair)
	if pool.TotalShares.IsZero() {
		slog.Warn("liquidity pool has no shares", "account", account, "token_pair", PoolPair)
		return zero
	}

	share := pos.Shares.Div(pool.TotalShares)
	result := domain.LiquidityPoolValue{
		DECQty: share.Mul(pool.BaseQuantity),
		SPSQty: share.Mul(pool.QuoteQuantity),
		Value:  decimal.Zero,
	}

	market, err := v.exchange.Market(ctx, "DEC")
	if err != nil {
		slog.Warn("DEC market unavailable, pool valued at zero", "account", account, "error", err)
		return result
	}
	result.Value = PoolValue(result.DECQty, market.LastPrice.Mul(hiveUSD))
	return result
}

// PoolValue is the value of a balanced two-asset position whose priced side
// holds claim units at rate.
func PoolValue(claim, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(2).Mul(claim).Mul(rate)
}
