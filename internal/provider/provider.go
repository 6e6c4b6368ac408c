// Package provider fetches raw part listings from the upstream catalog.
//
// The worker treats a provider as opaque: it either returns listings per
// category or fails with a *FetchError.
package provider

import (
	"context"
	"fmt"

	"partforge/internal/catalog"

	"github.com/shopspring/decimal"
)

// Money is an amount in a named currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// RawListing is a listing as returned upstream. Every field may be absent.
type RawListing struct {
	Brand        *string
	Manufacturer *string
	Model        *string
	Price        *Money
	URL          *string
}

// Provider returns listings for each requested category.
type Provider interface {
	Fetch(ctx context.Context, region string, categories []catalog.Entry, forceRefresh bool) (map[catalog.Category][]RawListing, error)
}

// FetchError reports that the upstream catalog could not be read for a category.
type FetchError struct {
	Category catalog.Category
	Err      error
}

func (e *FetchError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("fetch: %v", e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
