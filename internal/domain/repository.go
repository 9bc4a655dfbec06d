package domain

import (
	"context"
	"time"
)

// ListingSource supplies raw listings for a category. Implementations may be
// scrapers, mocks, or imports - the catalog only requires the Listing shape.
type ListingSource interface {
	Name() string
	Fetch(ctx context.Context, category string) ([]Listing, error)
}

// SnapshotCache caches prepared listing snapshots keyed by request fingerprint.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]Listing, error)
	Set(ctx context.Context, key string, listings []Listing, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// ListingRepository persists listings and manual mapping overrides.
type ListingRepository interface {
	SaveListings(ctx context.Context, listings []Listing) error
	AllListings(ctx context.Context) ([]Listing, error)
	UnmappedListings(ctx context.Context, limit int) ([]Listing, error)
	CountUnmapped(ctx context.Context) (int, error)
	ApplyMapping(ctx context.Context, m Mapping, adminID string) (*Listing, error)
	AuditTrail(ctx context.Context, limit int) ([]AuditRecord, error)
}
