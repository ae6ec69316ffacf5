package token

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/hiveengine"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type mockBalances struct {
	balances   []domain.TokenBalance
	lastFilter []string
}

func (m *mockBalances) Balances(_ context.Context, _ string, filter ...string) []domain.TokenBalance {
	m.lastFilter = filter
	return m.balances
}

type mockExchange struct {
	markets  map[string]domain.Market
	position *domain.LiquidityPosition
	pool     domain.LiquidityPool
	lookups  []string
}

func (m *mockExchange) Market(_ context.Context, symbol string) (domain.Market, error) {
	m.lookups = append(m.lookups, symbol)
	market, ok := m.markets[symbol]
	if !ok {
		return domain.Market{}, hiveengine.ErrNoMarket
	}
	return market, nil
}

func (m *mockExchange) LiquidityPosition(_ context.Context, _, _ string) *domain.LiquidityPosition {
	return m.position
}

func (m *mockExchange) Pool(_ context.Context, _ string) domain.LiquidityPool {
	return m.pool
}

func balance(token, qty string) domain.TokenBalance {
	return domain.TokenBalance{Player: "alice", Token: token, Balance: dec(qty)}
}

func find(values []domain.TokenValue, token string) (domain.TokenValue, bool) {
	for _, v := range values {
		if v.Token == token {
			return v, true
		}
	}
	return domain.TokenValue{}, false
}

func TestTokensAliasesAndCredits(t *testing.T) {
	balances := &mockBalances{balances: []domain.TokenBalance{
		balance("SPSP", "100"),
		balance("DICE", "10"),
		balance("VOUCHER-G", "4"),
		balance("CREDITS", "12345"),
		balance("DEC", "0"),
	}}
	exchange := &mockExchange{markets: map[string]domain.Market{
		"SPS":     {Symbol: "SPS", HighestBid: dec("0.05")},
		"SLDICE":  {Symbol: "SLDICE", HighestBid: dec("0.5")},
		"VOUCHER": {Symbol: "VOUCHER", HighestBid: dec("1.25")},
	}}

	values := NewValuer(balances, exchange, nil, decimal.Zero).Tokens(context.Background(), "alice", dec("0.2"))

	tests := []struct {
		token string
		value string
	}{
		{"SPSP", "1"},      // 100 * 0.05 * 0.2
		{"DICE", "1"},      // 10 * 0.5 * 0.2
		{"VOUCHER-G", "1"}, // 4 * 1.25 * 0.2
		{"CREDITS", "12.35"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			v, ok := find(values, tt.token)
			if !ok {
				t.Fatalf("%s missing", tt.token)
			}
			if !v.Value.Equal(dec(tt.value)) {
				t.Errorf("value = %s, want %s", v.Value, tt.value)
			}
		})
	}

	if _, ok := find(values, "DEC"); ok {
		t.Error("zero DEC balance should emit no value")
	}
	for _, symbol := range exchange.lookups {
		if symbol == "CREDITS" {
			t.Error("CREDITS should not be looked up on the exchange")
		}
	}
	if len(balances.lastFilter) != len(DefaultTokens) {
		t.Errorf("filter = %v, want default tokens", balances.lastFilter)
	}
}

func TestTokensMissingMarketIsZero(t *testing.T) {
	balances := &mockBalances{balances: []domain.TokenBalance{balance("LICENSE", "2")}}
	values := NewValuer(balances, &mockExchange{}, nil, decimal.Zero).Tokens(context.Background(), "alice", dec("0.2"))

	v, ok := find(values, "LICENSE")
	if !ok || !v.Value.IsZero() || !v.Qty.Equal(dec("2")) {
		t.Errorf("LICENSE = %+v", v)
	}
}

func TestTokensRoundToCents(t *testing.T) {
	balances := &mockBalances{balances: []domain.TokenBalance{balance("DEC", "1234")}}
	exchange := &mockExchange{markets: map[string]domain.Market{"DEC": {HighestBid: dec("0.00331")}}}

	values := NewValuer(balances, exchange, nil, decimal.Zero).Tokens(context.Background(), "alice", dec("0.21"))
	// 1234 * 0.00331 * 0.21 = 0.8577534
	if v, _ := find(values, "DEC"); !v.Value.Equal(dec("0.86")) {
		t.Errorf("DEC value = %s, want 0.86", v.Value)
	}
}

func TestMarketSymbol(t *testing.T) {
	for token, want := range map[string]string{"SPSP": "SPS", "DICE": "SLDICE", "VOUCHER-G": "VOUCHER", "DEC": "DEC"} {
		if got := MarketSymbol(token); got != want {
			t.Errorf("MarketSymbol(%s) = %s, want %s", token, got, want)
		}
	}
}

func TestLiquidityPool(t *testing.T) {
	exchange := &mockExchange{
		markets:  map[string]domain.Market{"DEC": {LastPrice: dec("0.004")}},
		position: &domain.LiquidityPosition{Account: "alice", TokenPair: PoolPair, Shares: dec("50")},
		pool:     domain.LiquidityPool{TokenPair: PoolPair, BaseQuantity: dec("200"), QuoteQuantity: dec("150"), TotalShares: dec("500")},
	}
	hiveUSD := dec("0.25")

	got := NewValuer(&mockBalances{}, exchange, nil, decimal.Zero).LiquidityPool(context.Background(), "alice", hiveUSD)

	rate := dec("0.004").Mul(hiveUSD)
	want := decimal.NewFromInt(2).Mul(decimal.NewFromInt(20)).Mul(rate)
	if !got.Value.Equal(want) {
		t.Errorf("value = %s, want %s", got.Value, want)
	}
	if !got.DECQty.Equal(dec("20")) || !got.SPSQty.Equal(dec("15")) {
		t.Errorf("quantities = %s DEC, %s SPS", got.DECQty, got.SPSQty)
	}
}

func TestLiquidityPoolZeroCases(t *testing.T) {
	tests := []struct {
		name     string
		exchange *mockExchange
	}{
		{"no position", &mockExchange{}},
		{"zero total shares", &mockExchange{
			position: &domain.LiquidityPosition{Shares: dec("5")},
			pool:     domain.LiquidityPool{BaseQuantity: dec("10")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewValuer(&mockBalances{}, tt.exchange, nil, decimal.Zero).LiquidityPool(context.Background(), "alice", dec("1"))
			if !got.Value.IsZero() || !got.DECQty.IsZero() {
				t.Errorf("pool = %+v", got)
			}
		})
	}
}
