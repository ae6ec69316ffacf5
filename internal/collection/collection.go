// Package collection values a player's card collection per edition.
package collection

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
)

// Inventory provides a player's cards and card names.
type Inventory interface {
	Collection(ctx context.Context, player string) []domain.CollectionCard
	CardName(ctx context.Context, cardDetailID int) string
}

// PriceBook resolves card variant prices. *price.Book implements it.
type PriceBook interface {
	ListPrice(v domain.CardVariant) (decimal.Decimal, bool)
	Realizable(v domain.CardVariant) (decimal.Decimal, bool)
}

// Valuer computes collection values.
type Valuer struct {
	inventory Inventory
}

// NewValuer creates a collection valuer.
func NewValuer(inventory Inventory) *Valuer {
	if inventory == nil {
		panic("collection: inventory must not be nil")
	}
	return &Valuer{inventory: inventory}
}

// Value returns one entry per edition for account. The bcx and card totals
// count every owned card; the value sums count sellable cards only. An empty
// collection yields no entries.
func (v *Valuer) Value(ctx context.Context, account string, book PriceBook) []domain.EditionValue {
	cards := v.inventory.Collection(ctx, account)
	if len(cards) == 0 {
		slog.Info("empty card collection", "account", account)
		return nil
	}

	byEdition := lo.GroupBy(cards, func(c domain.CollectionCard) domain.Edition { return c.Edition })

	values := make([]domain.EditionValue, 0, len(domain.Editions))
	for _, edition := range domain.Editions {
		owned := byEdition[edition]
		ev := domain.EditionValue{
			Edition:       edition,
			MarketValue:   decimal.Zero,
			ListValue:     decimal.Zero,
			BCX:           lo.SumBy(owned, func(c domain.CollectionCard) int { return c.BCX }),
			NumberOfCards: len(owned),
		}

		for _, g := range Group(lo.Filter(owned, func(c domain.CollectionCard, _ int) bool { return domain.IsSellable(c) })) {
			listPrice, listed := book.ListPrice(g.Variant())
			realizable, priced := book.Realizable(g.Variant())
			if !priced {
				slog.Warn("card not found on market, ignored for collection value",
					"account", account,
					"card", v.inventory.CardName(ctx, g.CardDetailID),
					"variant", g.Variant().String())
				continue
			}

			units := decimal.NewFromInt(int64(g.BCX * g.Count))
			if listed {
				ev.ListValue = ev.ListValue.Add(units.Mul(listPrice))
			}
			ev.MarketValue = ev.MarketValue.Add(units.Mul(realizable))
		}
		values = append(values, ev)
	}
	return values
}

// Group collapses identical cards into counted stacks, in first-seen order.
func Group(cards []domain.CollectionCard) []domain.CardGroup {
	counts := lo.CountValuesBy(cards, domain.CollectionCard.GroupKey)
	keys := lo.Uniq(lo.Map(cards, func(c domain.CollectionCard, _ int) domain.CardGroupKey { return c.GroupKey() }))
	return lo.Map(keys, func(k domain.CardGroupKey, _ int) domain.CardGroup {
		return domain.CardGroup{CardGroupKey: k, Count: counts[k]}
	})
}
