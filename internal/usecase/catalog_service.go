package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cartcompare/backend/internal/domain"
)

// CatalogConfig holds configuration for the catalog service.
type CatalogConfig struct {
	CacheTTL           time.Duration
	MergeThreshold     float64
	EnableDebugLogging bool
}

// CatalogService aggregates listings from all sources, normalizes prices,
// and serves grouped, deduplicated product views. The grouping itself is a
// pure function over a snapshot; the service adds the caching and source
// plumbing around it.
type CatalogService struct {
	sources  []domain.ListingSource
	repo     domain.ListingRepository
	cache    domain.SnapshotCache
	merger   *Merger
	cacheTTL time.Duration
	debug    bool
}

// CatalogQuery filters a catalog request. Zero values mean "no filter";
// Category defaults to "grocery".
type CatalogQuery struct {
	Category string
	Provider string
	Search   string
}

// NewCatalogService creates a catalog service. repo may be nil when running
// without persistence (mock-only mode).
func NewCatalogService(
	sources []domain.ListingSource,
	repo domain.ListingRepository,
	cache domain.SnapshotCache,
	config CatalogConfig,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 2 * time.Minute
	}
	return &CatalogService{
		sources: sources,
		repo:    repo,
		cache:   cache,
		merger: NewMerger(MergerConfig{
			Threshold:          config.MergeThreshold,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		cacheTTL: cacheTTL,
		debug:    config.EnableDebugLogging,
	}
}

// Products returns the grouped catalog for a query. Listing snapshots are
// cached by category+provider; groups are rebuilt per request from the
// snapshot and never mutated after being returned.
func (s *CatalogService) Products(ctx context.Context, query CatalogQuery) ([]domain.ProductGroup, error) {
	listings, err := s.Snapshot(ctx, query)
	if err != nil {
		return nil, err
	}
	if query.Search != "" {
		listings = filterBySearch(listings, query.Search)
	}
	return s.merger.BuildProductGroups(listings), nil
}

// Snapshot returns the prepared (normalized, canonicalized) listing list for
// a category+provider, from cache when fresh. The search filter is applied
// after caching so one snapshot serves every query string.
func (s *CatalogService) Snapshot(ctx context.Context, query CatalogQuery) ([]domain.Listing, error) {
	category := query.Category
	if category == "" {
		category = "grocery"
	}
	providerFilter := query.Provider
	if providerFilter == "" {
		providerFilter = "all"
	}
	cacheKey := fmt.Sprintf("products:%s:%s", category, providerFilter)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		return cached, nil
	}

	listings := s.fetchAll(ctx, category)
	listings = prepareListings(listings)

	if providerFilter != "all" {
		want := CanonicalProviderKey(providerFilter)
		filtered := listings[:0:0]
		for _, l := range listings {
			if l.ProviderKey == want {
				filtered = append(filtered, l)
			}
		}
		listings = filtered
	}

	if err := s.cache.Set(ctx, cacheKey, listings, s.cacheTTL); err != nil {
		log.Printf("[CATALOG] cache set failed for %s: %v", cacheKey, err)
	}
	return listings, nil
}

// fetchAll gathers listings from every source concurrently plus the persisted
// store. A failing source is logged and skipped - partial data beats no data.
func (s *CatalogService) fetchAll(ctx context.Context, category string) []domain.Listing {
	results := make([][]domain.Listing, len(s.sources))
	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src domain.ListingSource) {
			defer wg.Done()
			fetched, err := src.Fetch(ctx, category)
			if err != nil {
				log.Printf("[CATALOG] source %s failed: %v", src.Name(), err)
				return
			}
			results[i] = fetched
		}(i, src)
	}
	wg.Wait()

	var merged []domain.Listing
	if s.repo != nil {
		stored, err := s.repo.AllListings(ctx)
		if err != nil {
			log.Printf("[CATALOG] store read failed: %v", err)
		} else {
			merged = append(merged, stored...)
		}
	}
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}

// prepareListings attaches derived fields to each listing: a stable
// fingerprint id when none is set, the canonical provider key and display
// name, and the normalized per-100 price. A listing that already carries a
// normalized price keeps it untouched - manual admin overrides win over the
// automatic inference.
func prepareListings(listings []domain.Listing) []domain.Listing {
	prepared := make([]domain.Listing, len(listings))
	for i, l := range listings {
		if l.ListingID == "" {
			l.ListingID = listingFingerprint(l)
		}
		l.ProviderKey = CanonicalProviderKey(l.Provider)
		l.Provider = ProviderDisplayName(l.Provider)
		if l.NormalizedPrice == nil {
			if np, ok := NormalizePrice(l.Price, l.Unit); ok {
				value := np.Value
				l.NormalizedPrice = &value
				l.NormalizedUnit = np.Unit
			}
		}
		prepared[i] = l
	}
	return prepared
}

// listingFingerprint derives a stable id for listings without one, so the
// same provider row keeps its identity across snapshots.
func listingFingerprint(l domain.Listing) string {
	seed := fmt.Sprintf("%s|%s|%s", l.Provider, l.Name, l.Unit)
	sum := md5.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:12]
}

func filterBySearch(listings []domain.Listing, search string) []domain.Listing {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return listings
	}
	filtered := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Name), q) ||
			strings.Contains(strings.ToLower(l.Brand), q) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// Cheapest returns the single best-value listing per product, preferring
// normalized price for comparison and falling back to raw price when a
// listing is unnormalized.
func (s *CatalogService) Cheapest(ctx context.Context, query CatalogQuery) ([]domain.Listing, error) {
	listings, err := s.Snapshot(ctx, query)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]domain.Listing)
	var order []string
	for _, l := range listings {
		key := "name:" + strings.ToLower(l.Name)
		if l.ProductID != "" {
			key = "pid:" + l.ProductID
		}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], l)
	}

	cheapest := make([]domain.Listing, 0, len(order))
	for _, key := range order {
		bucket := byKey[key]
		candidates := bucket[:0:0]
		for _, l := range bucket {
			if l.NormalizedPrice != nil {
				candidates = append(candidates, l)
			}
		}
		if len(candidates) == 0 {
			candidates = bucket
		}
		best := candidates[0]
		for _, l := range candidates[1:] {
			if comparablePrice(l) < comparablePrice(best) {
				best = l
			}
		}
		cheapest = append(cheapest, best)
	}
	return cheapest, nil
}

func comparablePrice(l domain.Listing) float64 {
	if l.NormalizedPrice != nil {
		return *l.NormalizedPrice
	}
	return l.Price
}

// ListingsByID returns snapshot entries matching a listing or product id.
func (s *CatalogService) ListingsByID(ctx context.Context, id string) ([]domain.Listing, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}
	listings, err := s.Snapshot(ctx, CatalogQuery{})
	if err != nil {
		return nil, err
	}
	matches := make([]domain.Listing, 0, 4)
	for _, l := range listings {
		if l.ListingID == id || l.ProductID == id {
			matches = append(matches, l)
		}
	}
	if len(matches) == 0 {
		return nil, domain.ErrListingNotFound
	}
	return matches, nil
}

// Invalidate drops every cached snapshot. Called after admin mapping edits
// so overrides show up on the next request.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// Refresh fetches every source, persists the prepared snapshot, and warms
// the default cache key. Used by the background refresher.
func (s *CatalogService) Refresh(ctx context.Context, category string) (int, error) {
	if category == "" {
		category = "grocery"
	}
	listings := s.fetchAll(ctx, category)
	listings = prepareListings(listings)

	if s.repo != nil {
		if err := s.repo.SaveListings(ctx, listings); err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
	}

	cacheKey := fmt.Sprintf("products:%s:all", category)
	if err := s.cache.Set(ctx, cacheKey, listings, s.cacheTTL); err != nil {
		log.Printf("[CATALOG] cache warm failed for %s: %v", cacheKey, err)
	}
	return len(listings), nil
}
