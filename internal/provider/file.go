package provider

import (
	"context"
	"fmt"
	"os"

	"partforge/internal/catalog"

	"github.com/tidwall/gjson"
)

// FileProvider serves listings from a JSON fixture keyed by upstream category
// key (or category id). The file is re-read on every fetch.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Fetch(ctx context.Context, _ string, categories []catalog.Entry, _ bool) (map[catalog.Category][]RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Err: err}
	}

	body, err := os.ReadFile(p.path)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, &FetchError{Err: fmt.Errorf("%w: %s is not a json object", errMalformed, p.path)}
	}

	root := gjson.ParseBytes(body)
	out := make(map[catalog.Category][]RawListing, len(categories))
	for _, entry := range categories {
		section := root.Get(gjson.Escape(entry.ExternalKey))
		if !section.Exists() {
			section = root.Get(gjson.Escape(string(entry.Category)))
		}
		if !section.Exists() {
			out[entry.Category] = nil
			continue
		}
		listings, err := ParseListings([]byte(section.Raw))
		if err != nil {
			return nil, &FetchError{Category: entry.Category, Err: err}
		}
		out[entry.Category] = listings
	}
	return out, nil
}
