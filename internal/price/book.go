// Package price indexes card market quotes and serves them from a TTL cache.
package price

import (
	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
)

// Source names where a quote came from.
type Source string

const (
	SourceList     Source = "list"
	SourceMarket   Source = "market"
	SourceExchange Source = "exchange"
)

// Quote is a unit price for a tradeable item.
type Quote struct {
	Key    string          `json:"key"`
	Price  decimal.Decimal `json:"price"`
	Source Source          `json:"source"`
}

// Book holds the lowest listed and last traded bcx price per card variant.
type Book struct {
	list   map[domain.CardVariant]decimal.Decimal
	market map[domain.CardVariant]decimal.Decimal
}

// NewBook indexes listings and sales. Duplicate variants keep the lowest
// price; non-positive prices are ignored.
func NewBook(listings []domain.CardListing, sales []domain.CardSale) *Book {
	b := &Book{
		list:   make(map[domain.CardVariant]decimal.Decimal, len(listings)),
		market: make(map[domain.CardVariant]decimal.Decimal, len(sales)),
	}
	for _, l := range listings {
		keepLowest(b.list, l.Variant(), l.LowPriceBCX)
	}
	for _, s := range sales {
		keepLowest(b.market, s.Variant(), s.LastBCXPrice)
	}
	return b
}

func keepLowest(m map[domain.CardVariant]decimal.Decimal, v domain.CardVariant, p decimal.Decimal) {
	if !p.IsPositive() {
		return
	}
	if cur, ok := m[v]; !ok || p.LessThan(cur) {
		m[v] = p
	}
}

// ListPrice returns the lowest listed bcx price for v.
func (b *Book) ListPrice(v domain.CardVariant) (decimal.Decimal, bool) {
	p, ok := b.list[v]
	return p, ok
}

// MarketPrice returns the last traded bcx price for v.
func (b *Book) MarketPrice(v domain.CardVariant) (decimal.Decimal, bool) {
	p, ok := b.market[v]
	return p, ok
}

// Realizable returns min(list, market) when both exist, otherwise whichever
// one exists.
func (b *Book) Realizable(v domain.CardVariant) (decimal.Decimal, bool) {
	l, lok := b.ListPrice(v)
	m, mok := b.MarketPrice(v)
	switch {
	case lok && mok:
		return decimal.Min(l, m), true
	case lok:
		return l, true
	case mok:
		return m, true
	}
	return decimal.Zero, false
}

// Quotes returns every quote known for v.
func (b *Book) Quotes(v domain.CardVariant) []Quote {
	var quotes []Quote
	if p, ok := b.ListPrice(v); ok {
		quotes = append(quotes, Quote{Key: v.String(), Price: p, Source: SourceList})
	}
	if p, ok := b.MarketPrice(v); ok {
		quotes = append(quotes, Quote{Key: v.String(), Price: p, Source: SourceMarket})
	}
	return quotes
}

// Len reports the number of listed and traded variants.
func (b *Book) Len() (listed, traded int) {
	return len(b.list), len(b.market)
}

// ExchangeQuote turns a token market into its highest-bid quote in HIVE.
func ExchangeQuote(m domain.Market) Quote {
	return Quote{Key: m.Symbol, Price: m.HighestBid, Source: SourceExchange}
}
