package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cartcompare/backend/internal/domain"
)

func testListings() []domain.Listing {
	return []domain.Listing{
		{ListingID: "L1", Name: "Tata Salt 1 kg", Provider: "Zepto", Price: 32, Unit: "1 kg"},
		{ListingID: "L2", Name: "Tata Salt 1 kg", Provider: "Blinkit", Price: 30, Unit: "1 kg"},
	}
}

func TestMemoryCacheSetAndGet(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "products:grocery:all", testListings(), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := cache.Get(ctx, "products:grocery:all")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d listings, want 2", len(got))
	}
	if got[0].ListingID != "L1" {
		t.Errorf("first listing = %q, want L1", got[0].ListingID)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	cache := NewMemoryCache()

	_, err := cache.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "key", testListings(), 10*time.Millisecond); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	_, err := cache.Get(ctx, "key")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss after TTL", err)
	}
}

func TestMemoryCacheGetReturnsCopy(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "key", testListings(), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	first, _ := cache.Get(ctx, "key")
	first[0].Price = 999

	second, _ := cache.Get(ctx, "key")
	if second[0].Price != 32 {
		t.Errorf("cached listing mutated through returned slice: price = %v", second[0].Price)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	cache.Set(ctx, "key", testListings(), time.Minute)
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := cache.Get(ctx, "key"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss after delete", err)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	cache.Set(ctx, "a", testListings(), time.Minute)
	cache.Set(ctx, "b", testListings(), time.Minute)

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if cache.Size() != 0 {
		t.Errorf("size = %d after clear, want 0", cache.Size())
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				cache.Set(ctx, "shared", testListings(), time.Minute)
				cache.Get(ctx, "shared")
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if _, err := cache.Get(ctx, "shared"); err != nil {
		t.Errorf("Get after concurrent access: %v", err)
	}
}
