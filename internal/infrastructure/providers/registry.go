// Package providers supplies listing sources: deterministic mocks by
// default, with room for real scraper adapters behind the same interface.
package providers

import (
	"context"
	"fmt"

	"github.com/cartcompare/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Registry holds the configured listing sources and shapes outbound fetches
// with a shared rate limiter so real adapters stay polite to provider sites.
type Registry struct {
	sources []domain.ListingSource
	limiter *rate.Limiter
}

// Config holds configuration for the provider registry.
type Config struct {
	UseMocks bool
	// FetchPerSecond bounds outbound fetch starts across all sources.
	FetchPerSecond float64
}

// NewRegistry builds the source set. Real scraper adapters are not wired in
// this deployment; with UseMocks false the registry is empty and the catalog
// serves from the persisted store only.
func NewRegistry(config Config) *Registry {
	perSec := config.FetchPerSecond
	if perSec <= 0 {
		perSec = 5
	}
	r := &Registry{
		limiter: rate.NewLimiter(rate.Limit(perSec), len(mockCatalog)),
	}
	if config.UseMocks {
		for name := range mockCatalog {
			r.sources = append(r.sources, newMockSource(name))
		}
	}
	return r
}

// Sources returns the rate-limited listing sources.
func (r *Registry) Sources() []domain.ListingSource {
	wrapped := make([]domain.ListingSource, len(r.sources))
	for i, src := range r.sources {
		wrapped[i] = &limitedSource{src: src, limiter: r.limiter}
	}
	return wrapped
}

// limitedSource gates each fetch on the registry's shared rate limiter.
type limitedSource struct {
	src     domain.ListingSource
	limiter *rate.Limiter
}

func (l *limitedSource) Name() string { return l.src.Name() }

func (l *limitedSource) Fetch(ctx context.Context, category string) ([]domain.Listing, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrSourceFailure, err)
	}
	return l.src.Fetch(ctx, category)
}
