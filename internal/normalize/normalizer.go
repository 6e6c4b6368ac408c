package normalize

import (
	"errors"
	"strings"

	"partforge/internal/catalog"
	"partforge/internal/provider"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxSKULength matches the width of parts.sku.
	MaxSKULength = 120

	UnknownManufacturer = "Unknown"
)

// Rejection marks a listing that cannot be turned into a part.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return "listing rejected: " + r.Reason }

// MaxPrice is the largest amount parts.price_usd (decimal(10,2)) can hold.
var MaxPrice = decimal.RequireFromString("99999999.99")

var ErrMissingModel = &Rejection{Reason: "model is missing"}

// IsRejection reports whether err is a record-level rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// Record is a listing in canonical part/offer shape.
type Record struct {
	SKU          string
	Manufacturer string
	Model        string
	Category     catalog.Category
	CanonicalURL string
	OfferURL     string
	Price        *decimal.Decimal // nil when no usable price was found
}

// Normalizer maps raw listings to records. It holds no state beyond its
// settings and is safe for concurrent use.
type Normalizer struct {
	currency string
}

func New(currency string) *Normalizer {
	return &Normalizer{currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Normalize converts raw into a Record for the given category entry.
// A listing without a model is rejected with ErrMissingModel.
func (n *Normalizer) Normalize(raw provider.RawListing, entry catalog.Entry) (Record, error) {
	model := value(raw.Model)
	if model == "" {
		return Record{}, ErrMissingModel
	}

	manufacturer := value(raw.Brand)
	if manufacturer == "" {
		manufacturer = value(raw.Manufacturer)
	}
	if manufacturer == "" {
		manufacturer = UnknownManufacturer
	}

	offerURL := value(raw.URL)
	if offerURL == "" {
		offerURL = entry.PageURL
	}

	return Record{
		SKU:          SKU(manufacturer, model),
		Manufacturer: manufacturer,
		Model:        model,
		Category:     entry.Category,
		CanonicalURL: entry.PageURL,
		OfferURL:     offerURL,
		Price:        n.price(raw.Price),
	}, nil
}

// price keeps amounts in the accepted currency. A missing currency is taken
// to be the accepted one.
func (n *Normalizer) price(m *provider.Money) *decimal.Decimal {
	if m == nil {
		return nil
	}
	if c := strings.TrimSpace(m.Currency); c != "" && !strings.EqualFold(c, n.currency) {
		return nil
	}
	if m.Amount.IsNegative() {
		return nil
	}
	p := m.Amount.Round(2)
	if p.GreaterThan(MaxPrice) {
		return nil
	}
	return &p
}

// SKU derives the natural key for a part: "manufacturer-model" lowercased,
// with spaces and slashes turned into hyphens, capped at MaxSKULength runes.
// Listings that fold to the same key are the same part.
func SKU(manufacturer, model string) string {
	s := norm.NFKC.String(strings.TrimSpace(manufacturer) + "-" + strings.TrimSpace(model))
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "-", "/", "-").Replace(s)

	r := []rune(s)
	if len(r) > MaxSKULength {
		r = r[:MaxSKULength]
	}
	return string(r)
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
