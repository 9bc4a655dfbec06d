package domain

import "time"

// Normalized unit labels for per-unit pricing.
const (
	UnitPer100g  = "per_100g"
	UnitPer100ml = "per_100ml"
)

// Phase classifies a parsed quantity as weight or volume.
type Phase int

const (
	PhaseSolid Phase = iota
	PhaseLiquid
)

func (p Phase) String() string {
	if p == PhaseLiquid {
		return "liquid"
	}
	return "solid"
}

// BaseQuantity is a unit string reduced to grams (solid) or milliliters (liquid).
type BaseQuantity struct {
	Amount float64
	Phase  Phase
}

// NormalizedPrice is a price rescaled to a per-100g or per-100ml basis.
type NormalizedPrice struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Listing is a raw product listing as supplied by one provider.
// Everything except name, provider and price may be absent - third-party
// listing data is messy and partial records are the steady state.
type Listing struct {
	ListingID       string     `json:"listing_id,omitempty"`
	ProductID       string     `json:"product_id,omitempty"`
	Name            string     `json:"name"`
	Brand           string     `json:"brand,omitempty"`
	Category        string     `json:"category,omitempty"`
	Provider        string     `json:"provider"`
	ProviderKey     string     `json:"provider_key,omitempty"`
	Price           float64    `json:"price"`
	Unit            string     `json:"unit,omitempty"`
	URL             string     `json:"url,omitempty"`
	FetchedAt       *time.Time `json:"fetched_at,omitempty"`
	NormalizedPrice *float64   `json:"normalized_price"`
	NormalizedUnit  string     `json:"normalized_unit,omitempty"`
}

// ProductGroup is a set of listings from different providers judged to be
// the same underlying product. After merging, a group carries at most one
// listing per canonical provider (the cheapest by raw price).
type ProductGroup struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Brand    string    `json:"brand,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	Listings []Listing `json:"listings"`
}

// Mapping is a manual admin override for a single listing. Nil fields are
// left untouched.
type Mapping struct {
	ListingID       string   `json:"listing_id"`
	ProductID       *string  `json:"product_id,omitempty"`
	NormalizedPrice *float64 `json:"normalized_price,omitempty"`
	NormalizedUnit  *string  `json:"normalized_unit,omitempty"`
}

// AuditRecord is one admin mapping action, kept for traceability.
type AuditRecord struct {
	ID        int64     `json:"id"`
	ListingID string    `json:"listing_id"`
	Action    string    `json:"action"`
	Payload   string    `json:"payload"`
	AdminID   string    `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}
