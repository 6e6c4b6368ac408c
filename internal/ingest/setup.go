package ingest

import (
	"fmt"

	"partforge/internal/config"
	"partforge/internal/normalize"
	"partforge/internal/provider"
	"partforge/internal/store"

	"gorm.io/gorm"
)

const userAgent = "partforge-ingest/1.0"

// NewProvider builds the fetch provider selected by cfg.Provider.
func NewProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "http":
		return provider.NewHTTPProvider(provider.HTTPOptions{
			BaseURL:   cfg.ProviderURL,
			Timeout:   cfg.HTTPTimeout,
			RPS:       cfg.ProviderRPS,
			UserAgent: userAgent,
		})
	case "file":
		return provider.NewFileProvider(cfg.ProviderFile), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// FromConfig wires the cycle used by both the looping worker and the
// one-shot command.
func FromConfig(cfg *config.Config, db *gorm.DB) (*Cycle, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewCycle(p, normalize.New(cfg.Currency), store.New(db), Options{
		Region:     cfg.Region,
		Categories: cfg.Categories,
		Retailer:   Retailer{Slug: cfg.RetailerSlug, Name: cfg.RetailerName},
	}), nil
}
