// Package catalog resolves card names against the Scryfall reference
// service. It owns the process-wide request throttle and lookup cache the
// whole pipeline shares.
package catalog

import "errors"

// ErrNotFound reports that the catalog has no card for the queried name or
// identifier.
var ErrNotFound = errors.New("catalog: card not found")

// Card is the canonical record returned by a catalog lookup. Immutable once
// fetched.
type Card struct {
	ID              string   `json:"scryfall_id"`
	Name            string   `json:"name"`
	SetCode         string   `json:"set_code"`
	SetName         string   `json:"set_name"`
	CollectorNumber string   `json:"collector_number"`
	Rarity          string   `json:"rarity"`
	ManaCost        string   `json:"mana_cost"`
	TypeLine        string   `json:"type_line"`
	OracleText      string   `json:"oracle_text,omitempty"`
	ImageURL        string   `json:"image_uri,omitempty"`
	ScryfallURL     string   `json:"scryfall_uri,omitempty"`
	Price           *float64 `json:"price"`
	PriceFoil       *float64 `json:"price_foil"`
}
