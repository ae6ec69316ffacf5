package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Module names used in Record.Omitted.
const (
	ModuleCollection    = "collection"
	ModuleTokens        = "tokens"
	ModuleLiquidityPool = "liquidity_pool"
	ModuleDeeds         = "deeds"
	ModuleStakedDEC     = "dec_staked"
	ModuleLandResources = "land_resources"
)

// EditionValue is the collection value of one edition tier.
type EditionValue struct {
	Edition       Edition         `json:"edition"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	ListValue     decimal.Decimal `json:"listValue"`
	BCX           int             `json:"bcx"`
	NumberOfCards int             `json:"numberOfCards"`
}

// TokenValue is the USD value of one fungible token balance.
type TokenValue struct {
	Token string          `json:"token"`
	Qty   decimal.Decimal `json:"qty"`
	Value decimal.Decimal `json:"value"`
}

// LiquidityPoolValue is the account's claim on the DEC:SPS pool.
type LiquidityPoolValue struct {
	DECQty decimal.Decimal `json:"decQty"`
	SPSQty decimal.Decimal `json:"spsQty"`
	Value  decimal.Decimal `json:"value"`
}

// DeedsValue summarises owned deeds priced against market listings.
type DeedsValue struct {
	Qty           int             `json:"qty"`
	PriceFoundQty int             `json:"priceFoundQty"`
	Value         decimal.Decimal `json:"value"`
}

// StakedDECValue is the land-staked DEC position.
type StakedDECValue struct {
	Qty   decimal.Decimal `json:"qty"`
	Value decimal.Decimal `json:"value"`
}

// Record is one account's point-in-time valuation. Each section belongs to a
// single module; a module that failed is listed in Omitted and its section
// stays zero.
type Record struct {
	Date               time.Time          `json:"date"`
	Account            string             `json:"account"`
	Editions           []EditionValue     `json:"editions"`
	Tokens             []TokenValue       `json:"tokens"`
	LiquidityPool      LiquidityPoolValue `json:"liquidityPool"`
	Deeds              DeedsValue         `json:"deeds"`
	StakedDEC          StakedDECValue     `json:"decStaked"`
	LandResourcesValue decimal.Decimal    `json:"landResourcesValue"`
	Omitted            []string           `json:"omitted,omitempty"`
}

// Column is a named numeric cell of a wide valuation row.
type Column struct {
	Name  string
	Value decimal.Decimal
}

func (r Record) omitted(module string) bool {
	return slices.Contains(r.Omitted, module)
}

// Columns flattens the record into its wide-row schema. Sections of omitted
// modules produce no columns.
func (r Record) Columns() []Column {
	var cols []Column
	add := func(name string, v decimal.Decimal) {
		cols = append(cols, Column{Name: name, Value: v})
	}

	if !r.omitted(ModuleCollection) {
		for _, e := range r.Editions {
			name := e.Edition.String()
			add(name+"_market_value", e.MarketValue)
			add(name+"_list_value", e.ListValue)
			add(name+"_bcx", decimal.NewFromInt(int64(e.BCX)))
			add(name+"_number_of_cards", decimal.NewFromInt(int64(e.NumberOfCards)))
		}
	}
	if !r.omitted(ModuleTokens) {
		for _, t := range r.Tokens {
			name := strings.ToLower(t.Token)
			add(name+"_qty", t.Qty)
			add(name+"_value", t.Value)
		}
	}
	if !r.omitted(ModuleLiquidityPool) {
		add("liq_pool_dec_qty", r.LiquidityPool.DECQty)
		add("liq_pool_sps_qty", r.LiquidityPool.SPSQty)
		add("liq_pool_value", r.LiquidityPool.Value)
	}
	if !r.omitted(ModuleDeeds) {
		add("deeds_qty", decimal.NewFromInt(int64(r.Deeds.Qty)))
		add("deeds_price_found_qty", decimal.NewFromInt(int64(r.Deeds.PriceFoundQty)))
		add("deeds_value", r.Deeds.Value)
	}
	if !r.omitted(ModuleStakedDEC) {
		add("dec_staked_qty", r.StakedDEC.Qty)
		add("dec_staked_value", r.StakedDEC.Value)
	}
	if !r.omitted(ModuleLandResources) {
		add("land_resources_value", r.LandResourcesValue)
	}
	return cols
}

// TotalValue sums every realizable value column. List values are excluded
// so each holding counts once.
func (r Record) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Columns() {
		if strings.HasSuffix(c.Name, "_value") && !strings.HasSuffix(c.Name, "_list_value") {
			total = total.Add(c.Value)
		}
	}
	return total
}

// ColumnUnion returns the union of column names across records, in first-seen order.
func ColumnUnion(records []Record) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		for _, c := range r.Columns() {
			if !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
		}
	}
	return names
}

// Row returns the record's values for names; missing columns are zero.
func (r Record) Row(names []string) []decimal.Decimal {
	byName := make(map[string]decimal.Decimal)
	for _, c := range r.Columns() {
		byName[c.Name] = c.Value
	}
	row := make([]decimal.Decimal, len(names))
	for i, name := range names {
		row[i] = byName[name]
	}
	return row
}

// CollectionTotals sums list and market values over all editions.
func (r Record) CollectionTotals() (list, market decimal.Decimal) {
	for _, e := range r.Editions {
		list = list.Add(e.ListValue)
		market = market.Add(e.MarketValue)
	}
	return list, market
}
