// Package ingest runs one fetch, normalize and reconcile pass over the
// configured categories.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"partforge/internal/catalog"
	"partforge/internal/metrics"
	"partforge/internal/normalize"
	"partforge/internal/provider"
	"partforge/internal/store"
)

// Retailer names the source the listings come from.
type Retailer struct {
	Slug string
	Name string
}

// Options configures a Cycle.
type Options struct {
	Region     string
	Categories []catalog.Entry
	Retailer   Retailer
}

// Report summarizes a finished cycle.
type Report struct {
	Total          int                      `json:"total"`
	PerCategory    map[catalog.Category]int `json:"per_category"`
	Rejected       int                      `json:"rejected"`
	PartsUpserted  int                      `json:"parts_upserted"`
	OffersInserted int                      `json:"offers_inserted"`
	Duration       time.Duration            `json:"duration_ns"`
	FinishedAt     time.Time                `json:"finished_at"`
}

// HumanDuration renders the cycle duration like "12.3s".
func (r *Report) HumanDuration() string {
	return fmt.Sprintf("%.1fs", r.Duration.Seconds())
}

// Cycle wires the provider, normalizer and store for one pass.
type Cycle struct {
	provider   provider.Provider
	normalizer *normalize.Normalizer
	store      *store.Store
	opts       Options
}

func NewCycle(p provider.Provider, n *normalize.Normalizer, s *store.Store, opts Options) *Cycle {
	return &Cycle{provider: p, normalizer: n, store: s, opts: opts}
}

// Run fetches every configured category with a forced refresh and reconciles
// the listings, category by category in configuration order. Each category
// is committed on its own; the first fetch or store error ends the cycle and
// leaves earlier categories committed.
func (c *Cycle) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{PerCategory: make(map[catalog.Category]int, len(c.opts.Categories))}

	data, err := c.provider.Fetch(ctx, c.opts.Region, c.opts.Categories, true)
	if err != nil {
		return nil, err
	}

	retailerID, err := c.store.EnsureRetailer(ctx, c.opts.Retailer.Slug, c.opts.Retailer.Name)
	if err != nil {
		return nil, err
	}

	for _, entry := range c.opts.Categories {
		listings := data[entry.Category]

		records := make([]normalize.Record, 0, len(listings))
		rejected := 0
		for _, raw := range listings {
			rec, err := c.normalizer.Normalize(raw, entry)
			if err != nil {
				if normalize.IsRejection(err) {
					rejected++
					continue
				}
				return nil, err
			}
			records = append(records, rec)
		}

		result, err := c.store.ApplyBatch(ctx, retailerID, entry.Category, records)
		if err != nil {
			return nil, err
		}

		report.PerCategory[entry.Category] = len(listings)
		report.Total += len(listings)
		report.Rejected += rejected
		report.PartsUpserted += result.Parts
		report.OffersInserted += result.Offers

		metrics.RecordCategory(string(entry.Category), len(listings), rejected, result.Offers)
	}

	report.Duration = time.Since(started)
	report.FinishedAt = time.Now()
	log.Printf("[ingest] Ingested %d items from %s in %s (rejected=%d, offers=%d)",
		report.Total, c.opts.Retailer.Slug, report.HumanDuration(), report.Rejected, report.OffersInserted)
	return report, nil
}
