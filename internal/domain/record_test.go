package domain

import (
	"slices"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleRecord() Record {
	return Record{
		Account: "alice",
		Editions: []EditionValue{
			{Edition: EditionBeta, MarketValue: dec("4"), ListValue: dec("6"), BCX: 2, NumberOfCards: 2},
		},
		Tokens: []TokenValue{
			{Token: "DEC-B", Qty: dec("100"), Value: dec("1.5")},
		},
		LiquidityPool:      LiquidityPoolValue{DECQty: dec("20"), SPSQty: dec("15"), Value: dec("3")},
		Deeds:              DeedsValue{Qty: 1, PriceFoundQty: 1, Value: dec("10")},
		StakedDEC:          StakedDECValue{Qty: dec("1000"), Value: dec("0.8")},
		LandResourcesValue: dec("0.2"),
	}
}

func TestRecordColumns(t *testing.T) {
	cols := sampleRecord().Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	want := []string{
		"beta_market_value", "beta_list_value", "beta_bcx", "beta_number_of_cards",
		"dec-b_qty", "dec-b_value",
		"liq_pool_dec_qty", "liq_pool_sps_qty", "liq_pool_value",
		"deeds_qty", "deeds_price_found_qty", "deeds_value",
		"dec_staked_qty", "dec_staked_value",
		"land_resources_value",
	}
	if !slices.Equal(names, want) {
		t.Errorf("Columns() names = %v, want %v", names, want)
	}
}

func TestRecordTotalValueSkipsListValue(t *testing.T) {
	// 4 + 1.5 + 3 + 10 + 0.8 + 0.2
	if got := sampleRecord().TotalValue(); !got.Equal(dec("19.5")) {
		t.Errorf("TotalValue() = %s, want 19.5", got)
	}
}

func TestRecordOmittedModuleHasNoColumns(t *testing.T) {
	r := sampleRecord()
	r.Omitted = []string{ModuleDeeds, ModuleCollection}

	for _, c := range r.Columns() {
		if c.Name == "deeds_value" || c.Name == "beta_bcx" {
			t.Errorf("column %s present for omitted module", c.Name)
		}
	}
	if got := r.TotalValue(); !got.Equal(dec("5.5")) {
		t.Errorf("TotalValue() = %s, want 5.5", got)
	}
}

func TestColumnUnionAndRow(t *testing.T) {
	a := Record{Account: "a", Tokens: []TokenValue{{Token: "SPS", Qty: dec("1"), Value: dec("2")}}}
	b := Record{Account: "b", Tokens: []TokenValue{{Token: "DEC", Qty: dec("3"), Value: dec("4")}}}

	names := ColumnUnion([]Record{a, b})
	if !slices.Contains(names, "sps_value") || !slices.Contains(names, "dec_value") {
		t.Fatalf("ColumnUnion() = %v, want both token columns", names)
	}

	row := a.Row(names)
	idx := slices.Index(names, "dec_value")
	if !row[idx].IsZero() {
		t.Errorf("missing column value = %s, want 0", row[idx])
	}
}

func TestSafeDivAndParse(t *testing.T) {
	if got := SafeDiv(dec("1"), decimal.Zero); !got.IsZero() {
		t.Errorf("SafeDiv(1, 0) = %s, want 0", got)
	}
	if got := SafeParse("abc"); !got.IsZero() {
		t.Errorf("SafeParse(abc) = %s, want 0", got)
	}
	if got := RoundCents(dec("1.005")); !got.Equal(dec("1.01")) {
		t.Errorf("RoundCents(1.005) = %s, want 1.01", got)
	}
}
