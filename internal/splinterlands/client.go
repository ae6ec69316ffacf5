// Package splinterlands reads the card-game REST APIs: the main API, the land
// API and the price feed. Every accessor degrades to an empty result.
package splinterlands

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/restclient"
)

const (
	staticTTL = 24 * time.Hour
	marketTTL = time.Hour
)

// Client wraps the three card-game endpoints with read-through caches for
// shared market data.
type Client struct {
	api    *restclient.Client
	land   *restclient.Client
	prices *restclient.Client
	cache  *cache.Cache
}

// NewClient creates a client. It panics on nil REST clients.
func NewClient(api, land, prices *restclient.Client) *Client {
	if api == nil || land == nil || prices == nil {
		panic("splinterlands: REST clients must not be nil")
	}
	return &Client{
		api:    api,
		land:   land,
		prices: prices,
		cache:  cache.New(marketTTL, 10*time.Minute),
	}
}

// cached returns the value under key, calling fetch on a miss. Empty results
// are not cached so a transient outage is retried on the next call.
func cached[T any](c *Client, key string, ttl time.Duration, fetch func() (T, bool)) T {
	if v, ok := c.cache.Get(key); ok {
		return v.(T)
	}
	v, ok := fetch()
	if ok {
		c.cache.Set(key, v, ttl)
	}
	return v
}

// Collection returns every card player owns.
func (c *Client) Collection(ctx context.Context, player string) []domain.CollectionCard {
	return restclient.FetchTable[domain.CollectionCard](ctx, c.api, "cards/collection/"+url.PathEscape(player), nil, "cards")
}

// CardDetails returns static card metadata, cached for a day.
func (c *Client) CardDetails(ctx context.Context) []domain.CardDetail {
	return cached(c, "card_details", staticTTL, func() ([]domain.CardDetail, bool) {
		rows := restclient.FetchTable[domain.CardDetail](ctx, c.api, "cards/get_details", nil, "")
		return rows, len(rows) > 0
	})
}

// CardName resolves a card id to its name, or "" when unknown.
func (c *Client) CardName(ctx context.Context, cardDetailID int) string {
	for _, d := range c.CardDetails(ctx) {
		if d.ID == cardDetailID {
			return d.Name
		}
	}
	return ""
}

// Settings returns the game settings document, cached for a day.
func (c *Client) Settings(ctx context.Context) map[string]json.RawMessage {
	return cached(c, "settings", staticTTL, func() (map[string]json.RawMessage, bool) {
		return restclient.FetchObject[map[string]json.RawMessage](ctx, c.api, "settings", nil, "")
	})
}

// Balances returns player's in-game token balances. When filter is given only
// those tokens are returned, and tokens the player lacks appear with zero.
func (c *Client) Balances(ctx context.Context, player string, filter ...string) []domain.TokenBalance {
	rows := restclient.FetchTable[domain.TokenBalance](ctx, c.api, "players/balances",
		url.Values{"username": {player}}, "")
	if len(filter) == 0 || len(rows) == 0 {
		return rows
	}

	out := make([]domain.TokenBalance, 0, len(filter))
	present := make(map[string]bool)
	for _, r := range rows {
		if slices.Contains(filter, r.Token) {
			out = append(out, r)
			present[r.Token] = true
		}
	}
	for _, token := range filter {
		if !present[token] {
			out = append(out, domain.TokenBalance{Player: player, Token: token, Balance: decimal.Zero})
		}
	}
	return out
}

// Prices returns the USD reference prices. ok is false when the feed failed.
func (c *Client) Prices(ctx context.Context) (domain.FiatPrices, bool) {
	if v, found := c.cache.Get("prices"); found {
		return v.(domain.FiatPrices), true
	}
	p, ok := restclient.FetchObject[domain.FiatPrices](ctx, c.prices, "prices", nil, "")
	if ok {
		c.cache.Set("prices", p, marketTTL)
	}
	return p, ok
}

// CardsForSale returns the lowest listing per card variant.
func (c *Client) CardsForSale(ctx context.Context) []domain.CardListing {
	return cached(c, "for_sale_grouped", marketTTL, func() ([]domain.CardListing, bool) {
		rows := restclient.FetchTable[domain.CardListing](ctx, c.api, "market/for_sale_grouped", nil, "")
		return rows, len(rows) > 0
	})
}

// StakedDEC returns the DEC player has staked on land.
func (c *Client) StakedDEC(ctx context.Context, player string) (decimal.Decimal, bool) {
	rows := restclient.FetchTable[domain.StakedAmount](ctx, c.land, "land/stake/decstaked",
		url.Values{"player": {player}}, "data")
	return sumAmounts(rows), len(rows) > 0
}

// Deeds returns the deeds player owns.
func (c *Client) Deeds(ctx context.Context, player string) []domain.Deed {
	return restclient.FetchTable[domain.Deed](ctx, c.land, "land/deeds",
		url.Values{"status": {"collection"}, "player": {player}}, "data.deeds")
}

// MarketDeeds returns every deed currently listed for sale.
func (c *Client) MarketDeeds(ctx context.Context) []domain.Deed {
	return cached(c, "deeds_market", marketTTL, func() ([]domain.Deed, bool) {
		rows := restclient.FetchTable[domain.Deed](ctx, c.land, "land/deeds",
			url.Values{"status": {"market"}}, "data.deeds")
		return rows, len(rows) > 0
	})
}

// LandPools returns the land resource liquidity pools.
func (c *Client) LandPools(ctx context.Context) []domain.LandPool {
	return cached(c, "land_pools", marketTTL, func() ([]domain.LandPool, bool) {
		rows := restclient.FetchTable[domain.LandPool](ctx, c.land, "land/liquidity/pools", nil, "data")
		return rows, len(rows) > 0
	})
}

// OwnedResource returns the total of resource player owns; zero when unknown.
func (c *Client) OwnedResource(ctx context.Context, player, resource string) decimal.Decimal {
	rows := restclient.FetchTable[domain.StakedAmount](ctx, c.land, "land/resources/owned",
		url.Values{"player": {player}, "resource": {resource}}, "data")
	return sumAmounts(rows)
}

// PlayerDetails returns the player profile, or nil for unknown players.
func (c *Client) PlayerDetails(ctx context.Context, name string) map[string]json.RawMessage {
	details, ok := restclient.FetchObject[map[string]json.RawMessage](ctx, c.api, "players/details",
		url.Values{"name": {name}}, "")
	if !ok {
		return nil
	}
	return details
}

// PlayerExists reports whether the game knows name.
func (c *Client) PlayerExists(ctx context.Context, name string) bool {
	resp, err := c.api.Get(ctx, "players/details", url.Values{"name": {name}})
	if err != nil {
		slog.Warn("player lookup failed", "player", name, "error", err)
		return false
	}
	if !resp.OK() {
		return false
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return false
	}
	_, hasError := body["error"]
	return !hasError
}

func sumAmounts(rows []domain.StakedAmount) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}
