package land

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/failover"
	"github.com/beebalanced/valuation/internal/hiveengine"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func listed(rarity, plot, magic, deedType, price string) domain.Deed {
	return domain.Deed{
		Rarity:       rarity,
		PlotStatus:   plot,
		MagicType:    magic,
		DeedType:     deedType,
		ListingPrice: decimal.NewNullDecimal(dec(price)),
	}
}

type mockData struct {
	owned     []domain.Deed
	market    []domain.Deed
	staked    decimal.Decimal
	hasStaked bool
	pools     []domain.LandPool
	resources map[string]decimal.Decimal
}

func (m *mockData) Deeds(_ context.Context, _ string) []domain.Deed {
	return m.owned
}

func (m *mockData) MarketDeeds(_ context.Context) []domain.Deed {
	return m.market
}

func (m *mockData) StakedDEC(_ context.Context, _ string) (decimal.Decimal, bool) {
	return m.staked, m.hasStaked
}

func (m *mockData) LandPools(_ context.Context) []domain.LandPool {
	return m.pools
}

func (m *mockData) OwnedResource(_ context.Context, _, resource string) decimal.Decimal {
	return m.resources[resource]
}

type mockMarkets struct {
	markets map[string]domain.Market
	err     error
}

func (m *mockMarkets) Market(_ context.Context, symbol string) (domain.Market, error) {
	if m.err != nil {
		return domain.Market{}, m.err
	}
	market, ok := m.markets[symbol]
	if !ok {
		return domain.Market{}, hiveengine.ErrNoMarket
	}
	return market, nil
}

func TestMatchDeedSkipsNullAndFallsBack(t *testing.T) {
	deed := domain.Deed{Rarity: "Legendary", MagicType: "Fire", DeedType: "Forest"}
	listings := []domain.Deed{
		listed("Legendary", "occupied", "Fire", "Bog", "900"),
		listed("Legendary", "natural", "Fire", "Jungle", "850"),
		listed("Legendary", "natural", "Water", "Forest", "700"),
		listed("Rare", "natural", "Fire", "Forest", "100"),
	}

	m := MatchDeed(deed, listings)

	if !slices.Equal(m.Missing, []domain.DeedAttribute{domain.DeedType}) {
		t.Errorf("missing = %v, want [deed_type]", m.Missing)
	}
	if m.Candidates != 2 {
		t.Errorf("candidates = %d, want 2", m.Candidates)
	}
	if !m.Found || !m.Price.Equal(dec("850")) {
		t.Errorf("price = %s (found %v), want 850", m.Price, m.Found)
	}
}

func TestMatchDeedExact(t *testing.T) {
	deed := domain.Deed{Rarity: "Rare", PlotStatus: "natural", MagicType: "Fire", DeedType: "Forest"}
	listings := []domain.Deed{
		listed("Rare", "natural", "Fire", "Forest", "120"),
		listed("Rare", "natural", "Fire", "Forest", "100"),
		listed("Common", "natural", "Fire", "Forest", "10"),
	}

	m := MatchDeed(deed, listings)
	if len(m.Missing) != 0 || !m.Price.Equal(dec("100")) {
		t.Errorf("match = %+v", m)
	}
}

func TestMatchDeedIgnoresUnpricedListings(t *testing.T) {
	unpriced := domain.Deed{Rarity: "Epic"}
	m := MatchDeed(domain.Deed{Rarity: "Epic"}, []domain.Deed{unpriced})
	if m.Found {
		t.Errorf("match = %+v, want not found", m)
	}
}

func TestDeedsValue(t *testing.T) {
	data := &mockData{
		owned: []domain.Deed{
			{DeedUID: "d1", Rarity: "Rare"},
			{DeedUID: "d2", Rarity: "Mythic"},
		},
		market: []domain.Deed{listed("Rare", "", "", "", "100"), listed("Rare", "", "", "", "80")},
	}
	v := NewValuer(data, &mockMarkets{}, decimal.Zero)

	got := v.Deeds(context.Background(), "alice")
	// d2 has no Mythic listing and falls back to the whole set.
	if got.Qty != 2 || got.PriceFoundQty != 2 || !got.Value.Equal(dec("160")) {
		t.Errorf("deeds = %+v", got)
	}
}

func TestDeedsNoListings(t *testing.T) {
	data := &mockData{owned: []domain.Deed{{DeedUID: "d1", Rarity: "Rare"}}}
	v := NewValuer(data, &mockMarkets{}, decimal.Zero)

	got := v.Deeds(context.Background(), "alice")
	if got.Qty != 1 || got.PriceFoundQty != 0 || !got.Value.IsZero() {
		t.Errorf("deeds = %+v", got)
	}
}

func TestStakedDEC(t *testing.T) {
	data := &mockData{staked: dec("10000"), hasStaked: true}
	markets := &mockMarkets{markets: map[string]domain.Market{"DEC": {Symbol: "DEC", HighestBid: dec("0.0033")}}}
	v := NewValuer(data, markets, decimal.Zero)

	got := v.StakedDEC(context.Background(), "alice", dec("0.2"))
	// 10000 * 0.0033 * 0.2 = 6.6
	if !got.Qty.Equal(dec("10000")) || !got.Value.Equal(dec("6.6")) {
		t.Errorf("staked = %+v", got)
	}
}

func TestStakedDECMissingMarket(t *testing.T) {
	tests := []struct {
		name    string
		markets *mockMarkets
	}{
		{"no market", &mockMarkets{}},
		{"unavailable", &mockMarkets{err: &failover.ServiceUnavailableError{Pool: "hive-engine", Err: errors.New("connection refused")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := &mockData{staked: dec("5"), hasStaked: true}
			got := NewValuer(data, tt.markets, decimal.Zero).StakedDEC(context.Background(), "alice", dec("0.2"))
			if !got.Value.IsZero() || !got.Qty.Equal(dec("5")) {
				t.Errorf("staked = %+v", got)
			}
		})
	}
}

func TestStakedDECNone(t *testing.T) {
	v := NewValuer(&mockData{}, &mockMarkets{}, decimal.Zero)
	got := v.StakedDEC(context.Background(), "alice", dec("0.2"))
	if !got.Qty.IsZero() || !got.Value.IsZero() {
		t.Errorf("staked = %+v", got)
	}
}

func TestResources(t *testing.T) {
	data := &mockData{
		pools: []domain.LandPool{
			{TokenSymbol: "GRAIN", ResourcePrice: dec("0.01")},
			{TokenSymbol: "WOOD", ResourcePrice: dec("0.05")},
			{TokenSymbol: "GRAIN", ResourcePrice: dec("9")},
		},
		resources: map[string]decimal.Decimal{"GRAIN": dec("1000"), "WOOD": dec("0")},
	}
	v := NewValuer(data, &mockMarkets{}, decimal.Zero)

	got := v.Resources(context.Background(), "alice", dec("0.001"))
	// 1000 * 0.01 * 0.90 * 0.001 = 0.009
	if !got.Equal(dec("0.009")) {
		t.Errorf("resources = %s, want 0.009", got)
	}
}
