package catalog

import (
	"fmt"
	"strings"
)

// Category identifies a part category in the canonical parts table.
type Category string

const (
	CPU         Category = "cpu"
	GPU         Category = "gpu"
	Motherboard Category = "motherboard"
	RAM         Category = "ram"
	Storage     Category = "storage"
	PSU         Category = "psu"
)

// All lists every known category in default ingest order.
var All = []Category{CPU, GPU, Motherboard, RAM, Storage, PSU}

const pageBase = "https://pcpartpicker.com/products/"

// externalKeys maps a category to the key used by the upstream catalog.
var externalKeys = map[Category]string{
	CPU:         "cpu",
	GPU:         "video-card",
	Motherboard: "motherboard",
	RAM:         "memory",
	Storage:     "internal-hard-drive",
	PSU:         "power-supply",
}

// Entry is one configured category together with its upstream key and page URL.
type Entry struct {
	Category    Category
	ExternalKey string
	PageURL     string
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := externalKeys[c]
	return ok
}

// ExternalKey returns the default upstream key for c.
func (c Category) ExternalKey() string {
	return externalKeys[c]
}

// PageURL returns the default canonical listing page for c.
func (c Category) PageURL() string {
	key, ok := externalKeys[c]
	if !ok {
		return ""
	}
	return pageBase + key + "/"
}

// DefaultEntry builds the Entry for c with upstream defaults.
func DefaultEntry(c Category) Entry {
	return Entry{Category: c, ExternalKey: c.ExternalKey(), PageURL: c.PageURL()}
}

// Parse resolves a category id, accepting either the canonical id or the
// upstream key ("video-card" resolves to gpu).
func Parse(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c := Category(s); c.Valid() {
		return c, nil
	}
	for c, key := range externalKeys {
		if key == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParseList parses a comma separated list, keeping order and dropping duplicates.
func ParseList(s string) ([]Category, error) {
	var out []Category
	seen := make(map[Category]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := Parse(part)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
