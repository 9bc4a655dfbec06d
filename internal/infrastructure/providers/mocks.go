package providers

import (
	"context"
	"time"

	"github.com/cartcompare/backend/internal/domain"
)

// mockListing is the static part of a mock row; category and fetched_at are
// filled in per fetch.
type mockListing struct {
	listingID string
	productID string
	name      string
	brand     string
	price     float64
	unit      string
	url       string
}

// mockCatalog mirrors a small, deterministic slice of each provider's
// assortment. Overlapping product ids and near-duplicate names across
// providers are intentional - they exercise the grouping and dedup paths.
var mockCatalog = map[string][]mockListing{
	"Zepto": {
		{"zepto-1001", "A1", "Aashirvaad Atta 5 kg", "Aashirvaad", 399, "5 kg", "https://zepto.example/ashirvaad-5kg"},
		{"zepto-1002", "A2", "Tata Salt 1 kg", "Tata", 32, "1 kg", "https://zepto.example/tata-salt-1kg"},
	},
	"Blinkit": {
		{"blinkit-2001", "A1", "Aashirvaad Atta 5 kg", "Aashirvaad", 405, "5 kg", "https://blinkit.example/aashirvaad-5kg"},
		{"blinkit-2002", "A3", "Parle-G Biscuit 400 g", "Parle", 48, "400 g", "https://blinkit.example/parle-g-400g"},
	},
	"Instamart": {
		{"insta-3001", "A2", "Tata Salt 1 kg", "Tata", 30, "1 kg", "https://instamart.example/tata-salt-1kg"},
		{"insta-3002", "A4", "Daawat Jasmine Rice 5 kg", "Daawat", 495, "5 kg", "https://instamart.example/daawat-5kg"},
	},
	"BigBasket": {
		{"bb-4001", "A1", "Aashirvaad Atta 5 kg", "Aashirvaad", 398, "5 kg", "https://bigbasket.example/aashirvaad-5kg"},
		{"bb-4002", "A3", "Parle-G Biscuit 400 g", "Parle", 50, "400 g", "https://bigbasket.example/parle-g-400g"},
	},
	"JioMart": {
		{"jm-5001", "A4", "Daawat Jasmine Rice 5 kg", "Daawat", 500, "5 kg", "https://jiomart.example/daawat-5kg"},
		{"jm-5002", "A5", "Maggi Noodles 2 min 70 g", "Maggi", 12, "70 g", "https://jiomart.example/maggi-70g"},
	},
	"Dmart": {
		{"dm-6001", "A3", "Parle-G Biscuit 400 g", "Parle", 49, "400 g", "https://dmart.example/parle-g-400g"},
		{"dm-6002", "A5", "Maggi Noodles 2 min 70 g", "Maggi", 13, "70 g", "https://dmart.example/maggi-70g"},
	},
}

// mockSource returns the canned assortment for one provider.
type mockSource struct {
	provider string
}

func newMockSource(provider string) *mockSource {
	return &mockSource{provider: provider}
}

func (m *mockSource) Name() string { return m.provider }

func (m *mockSource) Fetch(ctx context.Context, category string) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rows := mockCatalog[m.provider]
	listings := make([]domain.Listing, 0, len(rows))
	for _, r := range rows {
		fetchedAt := now
		listings = append(listings, domain.Listing{
			ListingID: r.listingID,
			ProductID: r.productID,
			Name:      r.name,
			Brand:     r.brand,
			Category:  category,
			Provider:  m.provider,
			Price:     r.price,
			Unit:      r.unit,
			URL:       r.url,
			FetchedAt: &fetchedAt,
		})
	}
	return listings, nil
}
