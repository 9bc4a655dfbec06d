package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/cartcompare/backend/internal/domain"
	"github.com/google/uuid"
)

// ImportCSV seeds products and listings from a CSV stream. Expected columns:
//
//	id,name,brand,category,standard_unit,provider,price,unit,fetched_at,url
//
// Rows starting with '#' and malformed rows are skipped with a warning.
// Rows without an id get a generated one, so re-imports of id-less feeds
// create new listings rather than silently overwriting. Returns the number
// of rows imported.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	productStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, name, brand, category, standard_unit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer productStmt.Close()

	listingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (id, product_id, name, brand, category, provider, price, unit, url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET price = excluded.price, fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare listing insert: %w", err)
	}
	defer listingStmt.Close()

	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read csv: %w", err)
		}
		if len(record) < 8 {
			log.Printf("[STORE] skipping malformed csv row: %v", record)
			continue
		}

		id := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		brand := strings.TrimSpace(record[2])
		category := strings.TrimSpace(record[3])
		standardUnit := strings.TrimSpace(record[4])
		provider := strings.TrimSpace(record[5])
		price, err := strconv.ParseFloat(strings.TrimSpace(record[6]), 64)
		if err != nil || name == "" {
			log.Printf("[STORE] skipping csv row with bad name/price: %v", record)
			continue
		}
		unit := strings.TrimSpace(record[7])
		fetchedAt := ""
		url := ""
		if len(record) > 8 {
			fetchedAt = strings.TrimSpace(record[8])
		}
		if len(record) > 9 {
			url = strings.TrimSpace(record[9])
		}
		if fetchedAt == "" {
			fetchedAt = time.Now().UTC().Format(time.RFC3339)
		}

		productID := id
		if productID != "" {
			if _, err := productStmt.ExecContext(ctx, productID, name, nullable(brand), nullable(category), nullable(standardUnit)); err != nil {
				return 0, fmt.Errorf("failed to upsert product %s: %w", productID, err)
			}
		}

		listingID := uuid.NewString()
		if _, err := listingStmt.ExecContext(ctx,
			listingID, nullable(productID), name, nullable(brand), nullable(category),
			provider, price, nullable(unit), nullable(url), fetchedAt,
		); err != nil {
			return 0, fmt.Errorf("failed to insert listing for %s: %w", name, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return imported, nil
}

var _ domain.ListingRepository = (*Store)(nil)
