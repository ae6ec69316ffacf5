package hiveengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/beebalanced/valuation/internal/domain"
)

// ErrNoMarket means the exchange has no market for a symbol.
var ErrNoMarket = errors.New("no market for symbol")

// Market returns the market metrics for symbol. A missing market yields
// ErrNoMarket; node exhaustion yields a wrapped ServiceUnavailableError.
func (c *Client) Market(ctx context.Context, symbol string) (domain.Market, error) {
	key := "market:" + symbol
	if v, ok := c.cache.Get(key); ok {
		return v.(domain.Market), nil
	}

	raw, err := c.FindOne(ctx, "market", "metrics", map[string]any{"symbol": symbol})
	if err != nil {
		return domain.Market{}, fmt.Errorf("fetching market %s: %w", symbol, err)
	}
	if raw == nil {
		return domain.Market{}, fmt.Errorf("%w: %s", ErrNoMarket, symbol)
	}

	var m domain.Market
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Market{}, fmt.Errorf("decoding market %s: %w", symbol, err)
	}
	c.cache.SetDefault(key, m)
	return m, nil
}

// LiquidityPosition returns account's shares in tokenPair, or nil when the
// account has no position or the nodes are unavailable.
func (c *Client) LiquidityPosition(ctx context.Context, account, tokenPair string) *domain.LiquidityPosition {
	raw, err := c.FindOne(ctx, "marketpools", "liquidityPositions",
		map[string]any{"account": account, "tokenPair": tokenPair})
	if err != nil {
		slog.Warn("liquidity position unavailable", "account", account, "token_pair", tokenPair, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	var pos domain.LiquidityPosition
	if err := json.Unmarshal(raw, &pos); err != nil {
		slog.Warn("unexpected liquidity position shape", "account", account, "token_pair", tokenPair, "error", err)
		return nil
	}
	return &pos
}

// Pool returns the reserves of tokenPair, zero when unknown or unavailable.
func (c *Client) Pool(ctx context.Context, tokenPair string) domain.LiquidityPool {
	key := "pool:" + tokenPair
	if v, ok := c.cache.Get(key); ok {
		return v.(domain.LiquidityPool)
	}

	raw, err := c.FindOne(ctx, "marketpools", "pools", map[string]any{"tokenPair": tokenPair})
	if err != nil {
		slog.Warn("liquidity pool unavailable", "token_pair", tokenPair, "error", err)
		return domain.LiquidityPool{TokenPair: tokenPair}
	}
	if raw == nil {
		return domain.LiquidityPool{TokenPair: tokenPair}
	}

	var pool domain.LiquidityPool
	if err := json.Unmarshal(raw, &pool); err != nil {
		slog.Warn("unexpected liquidity pool shape", "token_pair", tokenPair, "error", err)
		return domain.LiquidityPool{TokenPair: tokenPair}
	}
	c.cache.SetDefault(key, pool)
	return pool
}

// AccountBalances returns account's side-chain token balances, restricted to
// symbols when any are given. Failures yield an empty list.
func (c *Client) AccountBalances(ctx context.Context, account string, symbols ...string) []domain.ExchangeBalance {
	rows, err := c.Find(ctx, "tokens", "balances", map[string]any{"account": account})
	if err != nil {
		slog.Warn("account balances unavailable", "account", account, "error", err)
		return nil
	}

	balances := make([]domain.ExchangeBalance, 0, len(rows))
	for _, raw := range rows {
		var b domain.ExchangeBalance
		if err := json.Unmarshal(raw, &b); err != nil {
			slog.Warn("skipping malformed balance", "account", account, "error", err)
			continue
		}
		if len(symbols) > 0 && !slices.Contains(symbols, b.Symbol) {
			continue
		}
		balances = append(balances, b)
	}
	return balances
}
