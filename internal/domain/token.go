package domain

import "github.com/shopspring/decimal"

// TokenBalance is one token balance held by a player.
type TokenBalance struct {
	Player  string          `json:"player"`
	Token   string          `json:"token"`
	Balance decimal.Decimal `json:"balance"`
}

// Market is the exchange market summary for a token, prices in HIVE.
type Market struct {
	Symbol     string          `json:"symbol"`
	HighestBid decimal.Decimal `json:"highestBid"`
	LowestAsk  decimal.Decimal `json:"lowestAsk"`
	LastPrice  decimal.Decimal `json:"lastPrice"`
	Volume     decimal.Decimal `json:"volume"`
}

// ExchangeBalance is a token balance on the exchange side chain.
type ExchangeBalance struct {
	Account string          `json:"account"`
	Symbol  string          `json:"symbol"`
	Balance decimal.Decimal `json:"balance"`
	Stake   decimal.Decimal `json:"stake"`
}

// LiquidityPool is a two-asset pool's reserves.
type LiquidityPool struct {
	TokenPair     string          `json:"tokenPair"`
	BaseQuantity  decimal.Decimal `json:"baseQuantity"`
	QuoteQuantity decimal.Decimal `json:"quoteQuantity"`
	TotalShares   decimal.Decimal `json:"totalShares"`
}

// LiquidityPosition is an account's shares in a pool.
type LiquidityPosition struct {
	Account   string          `json:"account"`
	TokenPair string          `json:"tokenPair"`
	Shares    decimal.Decimal `json:"shares"`
}

// FiatPrices are USD reference prices.
type FiatPrices struct {
	HiveUSD decimal.Decimal `json:"hive"`
	DECUSD  decimal.Decimal `json:"dec"`
}

// RichListEntry is one holder in a validator rich list.
type RichListEntry struct {
	Player  string          `json:"player"`
	Token   string          `json:"token"`
	Balance decimal.Decimal `json:"balance"`
}
