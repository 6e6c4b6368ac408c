package provider

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"partforge/internal/catalog"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// HTTPOptions configures an HTTPProvider.
type HTTPOptions struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64 // requests per second; <= 0 disables pacing
	UserAgent string
}

// HTTPProvider reads listings from a JSON catalog service at
// GET {base}/{region}/{external-key}.
type HTTPProvider struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

func NewHTTPProvider(opts HTTPOptions) (*HTTPProvider, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid provider base url %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "partforge-ingest/1.0"
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", ua)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return &HTTPProvider{baseURL: base, client: client, limiter: limiter}, nil
}

// Fetch requests each category in order and stops at the first failure.
func (p *HTTPProvider) Fetch(ctx context.Context, region string, categories []catalog.Entry, forceRefresh bool) (map[catalog.Category][]RawListing, error) {
	out := make(map[catalog.Category][]RawListing, len(categories))
	for _, entry := range categories {
		listings, err := p.fetchCategory(ctx, region, entry, forceRefresh)
		if err != nil {
			return nil, &FetchError{Category: entry.Category, Err: err}
		}
		out[entry.Category] = listings
	}
	return out, nil
}

func (p *HTTPProvider) fetchCategory(ctx context.Context, region string, entry catalog.Entry, forceRefresh bool) ([]RawListing, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := p.client.R().SetContext(ctx)
	if forceRefresh {
		req.SetHeader("Cache-Control", "no-cache")
		req.SetQueryParam("refresh", "true")
	}

	endpoint := fmt.Sprintf("%s/%s/%s", p.baseURL, url.PathEscape(region), url.PathEscape(entry.ExternalKey))
	started := time.Now()
	resp, err := req.Get(endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode(), endpoint)
	}

	listings, err := ParseListings(resp.Body())
	if err != nil {
		return nil, err
	}
	log.Printf("[provider] %s: %d listings in %v", entry.Category, len(listings), time.Since(started).Round(time.Millisecond))
	return listings, nil
}
