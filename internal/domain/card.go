package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Edition is the card-game edition id.
type Edition int

const (
	EditionAlpha       Edition = 0
	EditionBeta        Edition = 1
	EditionPromo       Edition = 2
	EditionReward      Edition = 3
	EditionUntamed     Edition = 4
	EditionDice        Edition = 5
	EditionGladius     Edition = 6
	EditionChaos       Edition = 7
	EditionRift        Edition = 8
	EditionSoulbound   Edition = 10
	EditionRebellion   Edition = 12
	EditionSoulboundRB Edition = 13
	EditionConclave    Edition = 14
	EditionFoundation  Edition = 15
)

// Editions lists every valued edition in column order.
var Editions = []Edition{
	EditionAlpha, EditionBeta, EditionPromo, EditionReward, EditionUntamed,
	EditionDice, EditionGladius, EditionChaos, EditionRift, EditionSoulbound,
	EditionRebellion, EditionSoulboundRB, EditionConclave, EditionFoundation,
}

var editionNames = map[Edition]string{
	EditionAlpha:       "alpha",
	EditionBeta:        "beta",
	EditionPromo:       "promo",
	EditionReward:      "reward",
	EditionUntamed:     "untamed",
	EditionDice:        "dice",
	EditionGladius:     "gladius",
	EditionChaos:       "chaos",
	EditionRift:        "rift",
	EditionSoulbound:   "soulbound",
	EditionRebellion:   "rebellion",
	EditionSoulboundRB: "soulboundrb",
	EditionConclave:    "conclave",
	EditionFoundation:  "foundation",
}

func (e Edition) String() string {
	if name, ok := editionNames[e]; ok {
		return name
	}
	return fmt.Sprintf("edition%d", int(e))
}

// CollectionCard is one owned physical card.
type CollectionCard struct {
	Player       string  `json:"player"`
	UID          string  `json:"uid"`
	CardDetailID int     `json:"card_detail_id"`
	XP           int     `json:"xp"`
	Gold         bool    `json:"gold"`
	Edition      Edition `json:"edition"`
	Level        int     `json:"level"`
	BCX          int     `json:"bcx"`
	BCXUnbound   int     `json:"bcx_unbound"`
}

// IsSellable applies the edition sellability rule: gladius cards never sell,
// soulbound cards sell only once fully unbound.
func IsSellable(c CollectionCard) bool {
	switch c.Edition {
	case EditionGladius:
		return false
	case EditionSoulbound, EditionSoulboundRB:
		return c.BCX == c.BCXUnbound
	default:
		return true
	}
}

// CardGroupKey holds every collection attribute except the owned count.
type CardGroupKey struct {
	Player       string
	CardDetailID int
	XP           int
	Gold         bool
	Edition      Edition
	Level        int
	BCX          int
	BCXUnbound   int
}

// GroupKey returns the stack key for c.
func (c CollectionCard) GroupKey() CardGroupKey {
	return CardGroupKey{
		Player:       c.Player,
		CardDetailID: c.CardDetailID,
		XP:           c.XP,
		Gold:         c.Gold,
		Edition:      c.Edition,
		Level:        c.Level,
		BCX:          c.BCX,
		BCXUnbound:   c.BCXUnbound,
	}
}

// CardGroup is a stack of identical cards.
type CardGroup struct {
	CardGroupKey
	Count int
}

// Variant returns the key used for market price lookups.
func (k CardGroupKey) Variant() CardVariant {
	return CardVariant{CardDetailID: k.CardDetailID, Gold: k.Gold, Edition: k.Edition}
}

// CardVariant identifies a tradeable card: the same card id, foil and edition.
type CardVariant struct {
	CardDetailID int
	Gold         bool
	Edition      Edition
}

func (v CardVariant) String() string {
	foil := "regular"
	if v.Gold {
		foil = "gold"
	}
	return fmt.Sprintf("%d/%s/%s", v.CardDetailID, foil, v.Edition)
}

// CardDetail is static card metadata.
type CardDetail struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Rarity int    `json:"rarity"`
	Color  string `json:"color"`
}

// CardListing is the lowest standing listing for a card variant.
type CardListing struct {
	CardDetailID int             `json:"card_detail_id"`
	Gold         bool            `json:"gold"`
	Edition      Edition         `json:"edition"`
	Qty          int             `json:"qty"`
	LowPriceBCX  decimal.Decimal `json:"low_price_bcx"`
	LowPrice     decimal.Decimal `json:"low_price"`
}

// Variant returns the listing's price key.
func (l CardListing) Variant() CardVariant {
	return CardVariant{CardDetailID: l.CardDetailID, Gold: l.Gold, Edition: l.Edition}
}

// CardSale is the last traded price for a card variant.
type CardSale struct {
	CardDetailID int             `json:"card_detail_id"`
	Gold         bool            `json:"gold"`
	Edition      Edition         `json:"edition"`
	LastBCXPrice decimal.Decimal `json:"last_bcx_price"`
	LastPrice    decimal.Decimal `json:"last_price"`
}

// Variant returns the sale's price key.
func (s CardSale) Variant() CardVariant {
	return CardVariant{CardDetailID: s.CardDetailID, Gold: s.Gold, Edition: s.Edition}
}
