// Package store provides SQLite persistence for listings and the manual
// admin mapping workflow.
//
// The database is the durable snapshot of scraped/imported listings; the
// request path reads through the in-memory cache and only falls back here.
// Store is safe for concurrent use - the underlying sql.DB handles
// connection pooling, and multi-row writes run inside transactions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cartcompare/backend/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Store handles persistence of listings and admin audit records.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. The database is created if
// it doesn't exist and migrations are applied automatically.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT,
		category TEXT,
		standard_unit TEXT
	);

	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		product_id TEXT,
		name TEXT NOT NULL,
		brand TEXT,
		category TEXT,
		provider TEXT NOT NULL,
		price REAL NOT NULL,
		unit TEXT,
		url TEXT,
		fetched_at TEXT,
		normalized_price REAL,
		normalized_unit TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_listings_provider ON listings(provider);
	CREATE INDEX IF NOT EXISTS idx_listings_unmapped ON listings(normalized_price) WHERE normalized_price IS NULL;

	CREATE TABLE IF NOT EXISTS admin_audit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id TEXT NOT NULL,
		action TEXT NOT NULL,
		payload TEXT,
		admin_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveListings upserts a batch of listings in a single transaction.
func (s *Store) SaveListings(ctx context.Context, listings []domain.Listing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (id, product_id, name, brand, category, provider, price, unit, url, fetched_at, normalized_price, normalized_unit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_id = excluded.product_id,
			name = excluded.name,
			brand = excluded.brand,
			category = excluded.category,
			provider = excluded.provider,
			price = excluded.price,
			unit = excluded.unit,
			url = excluded.url,
			fetched_at = excluded.fetched_at,
			normalized_price = COALESCE(listings.normalized_price, excluded.normalized_price),
			normalized_unit = COALESCE(NULLIF(listings.normalized_unit, ''), excluded.normalized_unit)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		var fetchedAt interface{}
		if l.FetchedAt != nil {
			fetchedAt = l.FetchedAt.UTC().Format(time.RFC3339)
		}
		var normPrice interface{}
		if l.NormalizedPrice != nil {
			normPrice = *l.NormalizedPrice
		}
		if _, err := stmt.ExecContext(ctx,
			l.ListingID, nullable(l.ProductID), l.Name, nullable(l.Brand), nullable(l.Category),
			l.Provider, l.Price, nullable(l.Unit), nullable(l.URL), fetchedAt,
			normPrice, nullable(l.NormalizedUnit),
		); err != nil {
			return fmt.Errorf("failed to upsert listing %s: %w", l.ListingID, err)
		}
	}

	return tx.Commit()
}

// AllListings returns every persisted listing.
func (s *Store) AllListings(ctx context.Context) ([]domain.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, name, brand, category, provider, price, unit, url, fetched_at, normalized_price, normalized_unit
		FROM listings
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// UnmappedListings returns listings whose unit could not be normalized
// automatically, newest first, capped at limit. These are the admin mapping
// workflow's queue.
func (s *Store) UnmappedListings(ctx context.Context, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, name, brand, category, provider, price, unit, url, fetched_at, normalized_price, normalized_unit
		FROM listings
		WHERE normalized_price IS NULL
		ORDER BY fetched_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmapped listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// CountUnmapped returns the number of listings awaiting manual mapping.
func (s *Store) CountUnmapped(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE normalized_price IS NULL",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unmapped listings: %w", err)
	}
	return count, nil
}

// ApplyMapping applies a manual admin override to one listing and writes an
// audit record in the same transaction. Only the fields set in the mapping
// are touched. Returns the updated listing.
func (s *Store) ApplyMapping(ctx context.Context, m domain.Mapping, adminID string) (*domain.Listing, error) {
	if m.ListingID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if m.ProductID == nil && m.NormalizedPrice == nil && m.NormalizedUnit == nil {
		return nil, domain.ErrNothingToUpdate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	set := ""
	args := make([]interface{}, 0, 4)
	if m.ProductID != nil {
		set += "product_id = ?"
		args = append(args, *m.ProductID)
	}
	if m.NormalizedPrice != nil {
		if set != "" {
			set += ", "
		}
		set += "normalized_price = ?"
		args = append(args, *m.NormalizedPrice)
	}
	if m.NormalizedUnit != nil {
		if set != "" {
			set += ", "
		}
		set += "normalized_unit = ?"
		args = append(args, *m.NormalizedUnit)
	}
	args = append(args, m.ListingID)

	res, err := tx.ExecContext(ctx, "UPDATE listings SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrListingNotFound
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit payload: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO admin_audit (listing_id, action, payload, admin_id) VALUES (?, 'map', ?, ?)",
		m.ListingID, string(payload), adminID,
	); err != nil {
		return nil, fmt.Errorf("failed to insert audit record: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, product_id, name, brand, category, provider, price, unit, url, fetched_at, normalized_price, normalized_unit
		FROM listings WHERE id = ?
	`, m.ListingID)
	updated, err := scanListing(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mapping: %w", err)
	}
	return updated, nil
}

// AuditTrail returns the most recent admin mapping actions.
func (s *Store) AuditTrail(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, listing_id, action, COALESCE(payload, ''), COALESCE(admin_id, ''), created_at
		FROM admin_audit
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var r domain.AuditRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.ListingID, &r.Action, &r.Payload, &r.AdminID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			r.CreatedAt = ts
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var l domain.Listing
	var productID, brand, category, unit, url, fetchedAt, normUnit sql.NullString
	var normPrice sql.NullFloat64

	err := row.Scan(&l.ListingID, &productID, &l.Name, &brand, &category, &l.Provider,
		&l.Price, &unit, &url, &fetchedAt, &normPrice, &normUnit)
	if err == sql.ErrNoRows {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	l.ProductID = productID.String
	l.Brand = brand.String
	l.Category = category.String
	l.Unit = unit.String
	l.URL = url.String
	l.NormalizedUnit = normUnit.String
	if normPrice.Valid {
		value := normPrice.Float64
		l.NormalizedPrice = &value
	}
	if fetchedAt.Valid && fetchedAt.String != "" {
		if ts, err := time.Parse(time.RFC3339, fetchedAt.String); err == nil {
			l.FetchedAt = &ts
		}
	}
	return &l, nil
}

func scanListings(rows *sql.Rows) ([]domain.Listing, error) {
	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}
