// Package store reconciles normalized listings into the parts, retailers and
// offers tables. All writes are conflict-safe, so replaying a cycle converges
// on the same rows.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partforge/internal/catalog"
	"partforge/internal/models"
	"partforge/internal/normalize"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Error wraps any failure to read or write the store.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Store is the only component that mutates persistent state.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// BatchResult counts what one category batch wrote.
type BatchResult struct {
	Parts  int
	Offers int
}

// EnsureRetailer creates the retailer if its slug is unknown and returns its
// id. An existing row is returned untouched.
func (s *Store) EnsureRetailer(ctx context.Context, slug, name string) (uint, error) {
	db := s.db.WithContext(ctx)

	r := models.Retailer{Slug: slug, Name: name}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&r).Error; err != nil {
		return 0, &Error{Op: "ensure retailer", Err: err}
	}

	var stored models.Retailer
	if err := db.Where("slug = ?", slug).Take(&stored).Error; err != nil {
		return 0, &Error{Op: "ensure retailer", Err: err}
	}
	return stored.ID, nil
}

// UpsertPart inserts the part or, when the sku exists, refreshes its price.
// Manufacturer, model, category and URL keep their first-seen values. A
// record without a price never overwrites a stored one.
func (s *Store) UpsertPart(ctx context.Context, rec normalize.Record) (uint, error) {
	db := s.db.WithContext(ctx)

	part := models.Part{
		SKU:          rec.SKU,
		Manufacturer: rec.Manufacturer,
		Model:        rec.Model,
		Category:     string(rec.Category),
		Price:        decimal.Zero,
		CanonicalURL: rec.CanonicalURL,
	}
	updates := []string{"updated_at"}
	// An unpriced sighting keeps the stored price rather than zeroing it.
	if rec.Price != nil {
		part.Price = *rec.Price
		updates = append(updates, "price_usd")
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&part).Error; err != nil {
		return 0, &Error{Op: "upsert part " + rec.SKU, Err: err}
	}

	var stored models.Part
	if err := db.Select("id").Where("sku = ?", rec.SKU).Take(&stored).Error; err != nil {
		return 0, &Error{Op: "upsert part " + rec.SKU, Err: err}
	}
	return stored.ID, nil
}

// RecordOffer inserts an offer when a price is known. A duplicate
// (part, retailer, url) is ignored rather than updated. It reports whether a
// row was written.
func (s *Store) RecordOffer(ctx context.Context, partID, retailerID uint, url string, price *decimal.Decimal) (bool, error) {
	if price == nil {
		return false, nil
	}

	now := s.now()
	offer := models.Offer{
		PartID:     partID,
		RetailerID: retailerID,
		URL:        url,
		Price:      *price,
		InStock:    true,
		LastSeenAt: now,
		FetchedAt:  now,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&offer)
	if res.Error != nil {
		return false, &Error{Op: "record offer", Err: res.Error}
	}
	return res.RowsAffected > 0, nil
}

// ApplyBatch writes one category's records in a single transaction. Either
// every record of the batch is committed or none is.
func (s *Store) ApplyBatch(ctx context.Context, retailerID uint, category catalog.Category, records []normalize.Record) (BatchResult, error) {
	var result BatchResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &Store{db: tx, now: s.now}
		for _, rec := range records {
			partID, err := txStore.UpsertPart(ctx, rec)
			if err != nil {
				return err
			}
			result.Parts++

			inserted, err := txStore.RecordOffer(ctx, partID, retailerID, rec.OfferURL, rec.Price)
			if err != nil {
				return err
			}
			if inserted {
				result.Offers++
			}
		}
		return nil
	})
	if err != nil {
		var storeErr *Error
		if errors.As(err, &storeErr) {
			return BatchResult{}, err
		}
		return BatchResult{}, &Error{Op: "commit " + string(category), Err: err}
	}
	return result, nil
}
