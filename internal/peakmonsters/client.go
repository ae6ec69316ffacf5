// Package peakmonsters reads last traded card prices from the PeakMonsters market.
package peakmonsters

import (
	"context"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/restclient"
)

// Client reads the card price list.
type Client struct {
	rest *restclient.Client
}

// NewClient creates a client. The REST client's base URL is the full price
// endpoint.
func NewClient(rest *restclient.Client) *Client {
	if rest == nil {
		panic("peakmonsters: REST client must not be nil")
	}
	return &Client{rest: rest}
}

// MarketPrices returns the last traded bcx price of every card variant, or
// nothing when the endpoint fails.
func (c *Client) MarketPrices(ctx context.Context) []domain.CardSale {
	return restclient.FetchTable[domain.CardSale](ctx, c.rest, "", nil, "prices")
}
