package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cartcompare/backend/internal/domain"
)

// stubSource returns a fixed listing slice and counts fetches.
type stubSource struct {
	name     string
	listings []domain.Listing
	err      error
	fetches  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, category string) ([]domain.Listing, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.listings, nil
}

// stubCache is a map-backed SnapshotCache without expiry.
type stubCache struct {
	entries map[string][]domain.Listing
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]domain.Listing)}
}

func (c *stubCache) Get(ctx context.Context, key string) ([]domain.Listing, error) {
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (c *stubCache) Set(ctx context.Context, key string, listings []domain.Listing, ttl time.Duration) error {
	c.entries[key] = listings
	c.sets++
	return nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *stubCache) Clear(ctx context.Context) error {
	c.entries = make(map[string][]domain.Listing)
	return nil
}

func newTestCatalog(sources []domain.ListingSource, cache domain.SnapshotCache) *CatalogService {
	return NewCatalogService(sources, nil, cache, CatalogConfig{})
}

func TestSnapshotPreparesListings(t *testing.T) {
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Aashirvaad Atta 5 kg", Brand: "Aashirvaad", Provider: "Zepto", Price: 399, Unit: "5 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	got, err := svc.Snapshot(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d listings, want 1", len(got))
	}

	l := got[0]
	if l.ListingID == "" || len(l.ListingID) != 12 {
		t.Errorf("fingerprint id = %q, want 12 hex chars", l.ListingID)
	}
	if l.ProviderKey != "zepto" {
		t.Errorf("provider key = %q, want zepto", l.ProviderKey)
	}
	if l.Provider != "Zepto" {
		t.Errorf("provider display = %q, want Zepto", l.Provider)
	}
	if l.NormalizedPrice == nil {
		t.Fatal("normalized price not computed")
	}
	if *l.NormalizedPrice != 7.98 || l.NormalizedUnit != domain.UnitPer100g {
		t.Errorf("normalized = %v %s, want 7.98 %s", *l.NormalizedPrice, l.NormalizedUnit, domain.UnitPer100g)
	}
}

func TestSnapshotKeepsManualNormalizedPrice(t *testing.T) {
	manual := 5.55
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Aashirvaad Atta 5 kg", Provider: "Zepto", Price: 399, Unit: "5 kg",
			NormalizedPrice: &manual, NormalizedUnit: domain.UnitPer100g},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	got, err := svc.Snapshot(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if *got[0].NormalizedPrice != 5.55 {
		t.Errorf("normalized price = %v, want the manual override 5.55", *got[0].NormalizedPrice)
	}
}

func TestSnapshotServesFromCache(t *testing.T) {
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Tata Salt 1 kg", Provider: "Zepto", Price: 32, Unit: "1 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	ctx := context.Background()
	if _, err := svc.Snapshot(ctx, CatalogQuery{}); err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	if _, err := svc.Snapshot(ctx, CatalogQuery{}); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if src.fetches != 1 {
		t.Errorf("source fetched %d times, want 1 (second call must hit the cache)", src.fetches)
	}
}

func TestSnapshotProviderFilter(t *testing.T) {
	src := &stubSource{name: "mixed", listings: []domain.Listing{
		{Name: "Tata Salt 1 kg", Provider: "Zepto", Price: 32, Unit: "1 kg"},
		{Name: "Tata Salt 1 kg", Provider: "Blinkit", Price: 30, Unit: "1 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	got, err := svc.Snapshot(context.Background(), CatalogQuery{Provider: "Blinkit"})
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(got) != 1 || got[0].ProviderKey != "blinkit" {
		t.Fatalf("got %d listings, want only the blinkit listing", len(got))
	}
}

func TestSnapshotSkipsFailingSource(t *testing.T) {
	good := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Tata Salt 1 kg", Provider: "Zepto", Price: 32, Unit: "1 kg"},
	}}
	bad := &stubSource{name: "blinkit", err: errors.New("upstream down")}
	svc := newTestCatalog([]domain.ListingSource{good, bad}, newStubCache())

	got, err := svc.Snapshot(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d listings, want 1 from the healthy source", len(got))
	}
}

func TestProductsSearchFilter(t *testing.T) {
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Tata Salt 1 kg", Brand: "Tata", Provider: "Zepto", Price: 32, Unit: "1 kg"},
		{Name: "Aashirvaad Atta 5 kg", Brand: "Aashirvaad", Provider: "Zepto", Price: 399, Unit: "5 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	got, err := svc.Products(context.Background(), CatalogQuery{Search: "salt"})
	if err != nil {
		t.Fatalf("Products returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d groups, want 1", len(got))
	}
	if got[0].Name != "Tata Salt 1 kg" {
		t.Errorf("group name = %q, want the salt listing", got[0].Name)
	}
}

func TestProductsSearchMatchesBrand(t *testing.T) {
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Superior MP Atta 5 kg", Brand: "Aashirvaad", Provider: "Zepto", Price: 399, Unit: "5 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	got, err := svc.Products(context.Background(), CatalogQuery{Search: "aashirvaad"})
	if err != nil {
		t.Fatalf("Products returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d groups, want 1 matched via brand", len(got))
	}
}

func TestCheapestPrefersNormalizedPrice(t *testing.T) {
	src := &stubSource{name: "mixed", listings: []domain.Listing{
		// cheaper per 100g despite higher sticker price
		{ProductID: "A1", Name: "Aashirvaad Atta 5 kg", Provider: "Zepto", Price: 399, Unit: "5 kg"},
		{ProductID: "A1", Name: "Aashirvaad Atta 1 kg", Provider: "Blinkit", Price: 90, Unit: "1 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	got, err := svc.Cheapest(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("Cheapest returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d listings, want 1 per product", len(got))
	}
	if got[0].ProviderKey != "zepto" {
		t.Errorf("cheapest = %s at %v, want the zepto listing (7.98 per 100g vs 9.00)", got[0].ProviderKey, got[0].Price)
	}
}

func TestCheapestFallsBackToRawPrice(t *testing.T) {
	src := &stubSource{name: "mixed", listings: []domain.Listing{
		{ProductID: "P1", Name: "Coriander Bunch", Provider: "Zepto", Price: 15, Unit: "1 pc"},
		{ProductID: "P1", Name: "Coriander Bunch", Provider: "Blinkit", Price: 12, Unit: "1 pc"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())

	got, err := svc.Cheapest(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("Cheapest returned error: %v", err)
	}
	if len(got) != 1 || got[0].ProviderKey != "blinkit" {
		t.Fatalf("want the cheaper raw-priced blinkit listing, got %+v", got)
	}
}

func TestListingsByID(t *testing.T) {
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{ListingID: "L1", ProductID: "A1", Name: "Tata Salt 1 kg", Provider: "Zepto", Price: 32, Unit: "1 kg"},
		{ListingID: "L2", ProductID: "A1", Name: "Tata Salt 1 kg", Provider: "Blinkit", Price: 30, Unit: "1 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())
	ctx := context.Background()

	t.Run("by product id", func(t *testing.T) {
		got, err := svc.ListingsByID(ctx, "A1")
		if err != nil {
			t.Fatalf("ListingsByID: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d listings, want 2", len(got))
		}
	})

	t.Run("by listing id", func(t *testing.T) {
		got, err := svc.ListingsByID(ctx, "L2")
		if err != nil {
			t.Fatalf("ListingsByID: %v", err)
		}
		if len(got) != 1 || got[0].ListingID != "L2" {
			t.Errorf("got %+v, want listing L2", got)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := svc.ListingsByID(ctx, "nope"); !errors.Is(err, domain.ErrListingNotFound) {
			t.Errorf("err = %v, want ErrListingNotFound", err)
		}
	})

	t.Run("empty id", func(t *testing.T) {
		if _, err := svc.ListingsByID(ctx, ""); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("err = %v, want ErrInvalidRequest", err)
		}
	})
}

func TestInvalidateClearsCache(t *testing.T) {
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Tata Salt 1 kg", Provider: "Zepto", Price: 32, Unit: "1 kg"},
	}}
	svc := newTestCatalog([]domain.ListingSource{src}, newStubCache())
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx, CatalogQuery{}); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := svc.Snapshot(ctx, CatalogQuery{}); err != nil {
		t.Fatalf("Snapshot after invalidate: %v", err)
	}
	if src.fetches != 2 {
		t.Errorf("source fetched %d times, want 2 after invalidation", src.fetches)
	}
}

func TestListingFingerprintStable(t *testing.T) {
	l := domain.Listing{Provider: "Zepto", Name: "Tata Salt 1 kg", Unit: "1 kg"}
	a := listingFingerprint(l)
	b := listingFingerprint(l)
	if a != b {
		t.Errorf("fingerprint not stable: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Errorf("fingerprint length = %d, want 12", len(a))
	}
	other := listingFingerprint(domain.Listing{Provider: "Blinkit", Name: "Tata Salt 1 kg", Unit: "1 kg"})
	if a == other {
		t.Error("different providers produced the same fingerprint")
	}
}

func TestRefreshPersistsAndWarmsCache(t *testing.T) {
	src := &stubSource{name: "zepto", listings: []domain.Listing{
		{Name: "Tata Salt 1 kg", Provider: "Zepto", Price: 32, Unit: "1 kg"},
	}}
	repo := &stubRepo{}
	cache := newStubCache()
	svc := NewCatalogService([]domain.ListingSource{src}, repo, cache, CatalogConfig{})

	count, err := svc.Refresh(context.Background(), "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if count != 1 {
		t.Errorf("refreshed %d listings, want 1", count)
	}
	if len(repo.saved) != 1 {
		t.Errorf("repo saved %d listings, want 1", len(repo.saved))
	}
	if _, ok := cache.entries["products:grocery:all"]; !ok {
		t.Error("default snapshot cache key not warmed")
	}
}

// stubRepo records saves; reads return what was saved. Safe for concurrent
// use so refresher tests can poll it.
type stubRepo struct {
	mu    sync.Mutex
	saved []domain.Listing
}

func (r *stubRepo) SaveListings(ctx context.Context, listings []domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved[:0], listings...)
	return nil
}

func (r *stubRepo) AllListings(ctx context.Context) ([]domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Listing(nil), r.saved...), nil
}

func (r *stubRepo) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func (r *stubRepo) UnmappedListings(ctx context.Context, limit int) ([]domain.Listing, error) {
	return nil, nil
}

func (r *stubRepo) CountUnmapped(ctx context.Context) (int, error) { return 0, nil }

func (r *stubRepo) ApplyMapping(ctx context.Context, m domain.Mapping, adminID string) (*domain.Listing, error) {
	return nil, domain.ErrListingNotFound
}

func (r *stubRepo) AuditTrail(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	return nil, nil
}
