package usecase

import (
	"context"
	"log"
	"time"
)

// Refresher prefetches provider data on an interval so requests are served
// from a warm snapshot instead of fetching inline.
type Refresher struct {
	catalog  *CatalogService
	category string
	interval time.Duration
}

// NewRefresher creates a refresher for the given category.
func NewRefresher(catalog *CatalogService, category string, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if category == "" {
		category = "grocery"
	}
	return &Refresher{catalog: catalog, category: category, interval: interval}
}

// Run refreshes once immediately, then on every tick until the context is
// cancelled. Intended to run in its own goroutine.
func (r *Refresher) Run(ctx context.Context) {
	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[REFRESH] stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	count, err := r.catalog.Refresh(ctx, r.category)
	if err != nil {
		log.Printf("[REFRESH] cycle failed: %v", err)
		return
	}
	log.Printf("[REFRESH] snapshot refreshed with %d listings", count)
}
