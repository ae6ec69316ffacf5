package price

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/beebalanced/valuation/internal/domain"
)

// ErrNoPrices indicates that no card price source returned data.
var ErrNoPrices = errors.New("no card prices available")

// ListingSource provides the lowest standing card listings.
type ListingSource interface {
	CardsForSale(ctx context.Context) []domain.CardListing
}

// SaleSource provides last traded card prices.
type SaleSource interface {
	MarketPrices(ctx context.Context) []domain.CardSale
}

// FiatSource provides USD reference prices.
type FiatSource interface {
	Prices(ctx context.Context) (domain.FiatPrices, bool)
}

const (
	bookKey  = "book"
	ratesKey = "rates"

	// DefaultTTL matches the market refresh interval.
	DefaultTTL = time.Hour
)

// Service builds and caches the card price book and fiat rates.
type Service struct {
	listings ListingSource
	sales    SaleSource
	fiat     FiatSource
	cache    *cache.Cache
}

// NewService creates a price service whose snapshots live for ttl.
func NewService(listings ListingSource, sales SaleSource, fiat FiatSource, ttl time.Duration) *Service {
	if listings == nil || sales == nil || fiat == nil {
		panic("price: sources must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		listings: listings,
		sales:    sales,
		fiat:     fiat,
		cache:    cache.New(ttl, 2*ttl),
	}
}

// Book returns the cached price book, building it when absent.
func (s *Service) Book(ctx context.Context) *Book {
	if b, ok := s.cache.Get(bookKey); ok {
		return b.(*Book)
	}
	b, _ := s.buildBook(ctx)
	return b
}

// Rates returns the cached USD reference prices.
func (s *Service) Rates(ctx context.Context) (domain.FiatPrices, bool) {
	if r, ok := s.cache.Get(ratesKey); ok {
		return r.(domain.FiatPrices), true
	}
	return s.fetchRates(ctx)
}

// Refresh rebuilds the price book and rates regardless of cache state.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.buildBook(ctx)
	if _, ok := s.fetchRates(ctx); !ok {
		slog.Warn("fiat prices unavailable during refresh")
	}
	return err
}

// buildBook caches the book only when at least one source returned data so
// that an outage does not pin an empty book for a whole TTL.
func (s *Service) buildBook(ctx context.Context) (*Book, error) {
	listings := s.listings.CardsForSale(ctx)
	sales := s.sales.MarketPrices(ctx)
	book := NewBook(listings, sales)

	listed, traded := book.Len()
	slog.Info("card price book built", "listed", listed, "traded", traded)
	if listed == 0 && traded == 0 {
		return book, ErrNoPrices
	}
	s.cache.SetDefault(bookKey, book)
	return book, nil
}

func (s *Service) fetchRates(ctx context.Context) (domain.FiatPrices, bool) {
	rates, ok := s.fiat.Prices(ctx)
	if !ok {
		return domain.FiatPrices{}, false
	}
	s.cache.SetDefault(ratesKey, rates)
	return rates, true
}
