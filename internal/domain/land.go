package domain

import "github.com/shopspring/decimal"

// Deed is a land deed, either owned or listed on the market.
// Empty attributes stand for null values in the API.
type Deed struct {
	DeedUID      string              `json:"deed_uid"`
	Rarity       string              `json:"rarity"`
	PlotStatus   string              `json:"plot_status"`
	MagicType    string              `json:"magic_type"`
	DeedType     string              `json:"deed_type"`
	ListingPrice decimal.NullDecimal `json:"listing_price"`
}

// DeedAttribute names one of the attributes deeds are matched on.
type DeedAttribute string

const (
	DeedRarity     DeedAttribute = "rarity"
	DeedPlotStatus DeedAttribute = "plot_status"
	DeedMagicType  DeedAttribute = "magic_type"
	DeedType       DeedAttribute = "deed_type"
)

// DeedAttributes is the narrowing order used for deed matching.
var DeedAttributes = []DeedAttribute{DeedRarity, DeedPlotStatus, DeedMagicType, DeedType}

// Attribute returns the deed's value for attr.
func (d Deed) Attribute(attr DeedAttribute) string {
	switch attr {
	case DeedRarity:
		return d.Rarity
	case DeedPlotStatus:
		return d.PlotStatus
	case DeedMagicType:
		return d.MagicType
	case DeedType:
		return d.DeedType
	}
	return ""
}

// LandPool is a resource pool in the land liquidity registry.
type LandPool struct {
	TokenSymbol   string          `json:"token_symbol"`
	ResourcePrice decimal.Decimal `json:"resource_price"`
}

// StakedAmount is a single staked or owned quantity row.
type StakedAmount struct {
	Amount decimal.Decimal `json:"amount"`
}
