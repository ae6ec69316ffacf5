// Package validator reads token holder lists from the SPS validator API.
package validator

import (
	"context"
	"net/url"
	"strconv"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/restclient"
)

// Client queries the validator.
type Client struct {
	rest *restclient.Client
}

// NewClient creates a client.
func NewClient(rest *restclient.Client) *Client {
	if rest == nil {
		panic("validator: REST client must not be nil")
	}
	return &Client{rest: rest}
}

// RichList returns the top limit holders of token, system accounts excluded.
func (c *Client) RichList(ctx context.Context, token string, limit int) []domain.RichListEntry {
	params := url.Values{
		"limit":          {strconv.Itoa(limit)},
		"systemAccounts": {"false"},
	}
	return restclient.FetchTable[domain.RichListEntry](ctx, c.rest, "tokens/"+url.PathEscape(token), params, "balances")
}
