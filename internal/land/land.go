// Package land values deeds, land-staked DEC and owned land resources.
package land

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/hiveengine"
)

// DefaultSwapFee is the share of a resource's pool price kept after swapping.
var DefaultSwapFee = decimal.RequireFromString("0.90")

// Data provides land holdings and market listings.
type Data interface {
	Deeds(ctx context.Context, player string) []domain.Deed
	MarketDeeds(ctx context.Context) []domain.Deed
	StakedDEC(ctx context.Context, player string) (decimal.Decimal, bool)
	LandPools(ctx context.Context) []domain.LandPool
	OwnedResource(ctx context.Context, player, resource string) decimal.Decimal
}

// MarketSource resolves token exchange markets.
type MarketSource interface {
	Market(ctx context.Context, symbol string) (domain.Market, error)
}

// Valuer computes land values.
type Valuer struct {
	data    Data
	markets MarketSource
	swapFee decimal.Decimal
}

// NewValuer creates a land valuer. A non-positive swapFee selects DefaultSwapFee.
func NewValuer(data Data, markets MarketSource, swapFee decimal.Decimal) *Valuer {
	if data == nil || markets == nil {
		panic("land: dependencies must not be nil")
	}
	if !swapFee.IsPositive() {
		swapFee = DefaultSwapFee
	}
	return &Valuer{data: data, markets: markets, swapFee: swapFee}
}

// Deeds prices every owned deed against the cheapest matching listing.
func (v *Valuer) Deeds(ctx context.Context, account string) domain.DeedsValue {
	owned := v.data.Deeds(ctx, account)
	result := domain.DeedsValue{Qty: len(owned), Value: decimal.Zero}
	if len(owned) == 0 {
		return result
	}

	listings := v.data.MarketDeeds(ctx)
	for _, deed := range owned {
		m := MatchDeed(deed, listings)
		if len(m.Missing) > 0 {
			slog.Warn("no exact deed match, using narrowed search",
				"account", account,
				"deed", deed.DeedUID,
				"missing", m.Missing,
				"rarity", deed.Rarity,
				"plot_status", deed.PlotStatus,
				"magic_type", deed.MagicType,
				"deed_type", deed.DeedType,
				"price", m.Price.String(),
				"found", m.Found)
		}
		if !m.Found {
			slog.Warn("no listing price for deed", "account", account, "deed", deed.DeedUID)
			continue
		}
		result.PriceFoundQty++
		result.Value = result.Value.Add(m.Price)
	}
	return result
}

// DeedMatch is the outcome of narrowing the listing set for one deed.
type DeedMatch struct {
	Candidates int
	Missing    []domain.DeedAttribute
	Price      decimal.Decimal
	Found      bool
}

// MatchDeed narrows listings by each deed attribute in turn. Empty attributes
// skip their step; a step that would leave no candidates is recorded as
// missing and the previous set is kept. The price is the lowest listing
// price of the surviving candidates.
func MatchDeed(deed domain.Deed, listings []domain.Deed) DeedMatch {
	candidates := listings
	var missing []domain.DeedAttribute
	for _, attr := range domain.DeedAttributes {
		want := deed.Attribute(attr)
		if want == "" {
			continue
		}
		narrowed := lo.Filter(candidates, func(l domain.Deed, _ int) bool { return l.Attribute(attr) == want })
		if len(narrowed) == 0 {
			missing = append(missing, attr)
			continue
		}
		candidates = narrowed
	}

	m := DeedMatch{Candidates: len(candidates), Missing: missing, Price: decimal.Zero}
	for _, c := range candidates {
		if !c.ListingPrice.Valid {
			continue
		}
		if !m.Found || c.ListingPrice.Decimal.LessThan(m.Price) {
			m.Price = c.ListingPrice.Decimal
			m.Found = true
		}
	}
	return m
}

// StakedDEC values land-staked DEC at the DEC highest bid converted to USD.
// A missing market yields zero value.
func (v *Valuer) StakedDEC(ctx context.Context, account string, hiveUSD decimal.Decimal) domain.StakedDECValue {
	qty, ok := v.data.StakedDEC(ctx, account)
	if !ok || qty.IsZero() {
		return domain.StakedDECValue{Qty: decimal.Zero, Value: decimal.Zero}
	}

	market, err := v.markets.Market(ctx, "DEC")
	if err != nil {
		if errors.Is(err, hiveengine.ErrNoMarket) {
			slog.Warn("no DEC market, staked DEC valued at zero", "account", account)
		} else {
			slog.Warn("DEC market unavailable, staked DEC valued at zero", "account", account, "error", err)
		}
		return domain.StakedDECValue{Qty: qty, Value: decimal.Zero}
	}

	value := domain.RoundCents(market.HighestBid.Mul(hiveUSD).Mul(qty))
	return domain.StakedDECValue{Qty: qty, Value: value}
}

// Resources values owned land resources through their pool price in DEC.
func (v *Valuer) Resources(ctx context.Context, account string, decUSD decimal.Decimal) decimal.Decimal {
	pools := lo.UniqBy(v.data.LandPools(ctx), func(p domain.LandPool) string { return p.TokenSymbol })

	total := decimal.Zero
	for _, pool := range pools {
		qty := v.data.OwnedResource(ctx, account, pool.TokenSymbol)
		if qty.IsZero() {
			continue
		}
		valueDEC := qty.Mul(pool.ResourcePrice).Mul(v.swapFee)
		total = total.Add(valueDEC.Mul(decUSD))
	}
	return total
}
