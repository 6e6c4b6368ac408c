package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var errMalformed = errors.New("malformed listing payload")

// ParseListings decodes a listing payload. The payload is either a JSON array
// of listings or an object carrying the array under "items" or "listings".
// Malformed individual fields are dropped; only a malformed top level fails.
func ParseListings(body []byte) ([]RawListing, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", errMalformed)
	}

	root := gjson.ParseBytes(body)
	if root.IsObject() {
		switch {
		case root.Get("items").IsArray():
			root = root.Get("items")
		case root.Get("listings").IsArray():
			root = root.Get("listings")
		default:
			return nil, fmt.Errorf("%w: no items array", errMalformed)
		}
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected array, got %s", errMalformed, root.Type)
	}

	items := root.Array()
	out := make([]RawListing, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		out = append(out, parseListing(item))
	}
	return out, nil
}

func parseListing(item gjson.Result) RawListing {
	return RawListing{
		Brand:        optString(item.Get("brand")),
		Manufacturer: optString(item.Get("manufacturer")),
		Model:        optString(item.Get("model")),
		Price:        parsePrice(item.Get("price")),
		URL:          optString(item.Get("url")),
	}
}

func optString(v gjson.Result) *string {
	if v.Type != gjson.String && v.Type != gjson.Number {
		return nil
	}
	return String(v.String())
}

// parsePrice accepts {"amount": 1.5, "currency": "USD"} or a bare amount.
func parsePrice(v gjson.Result) *Money {
	var amount, currency gjson.Result
	if v.IsObject() {
		amount = v.Get("amount")
		currency = v.Get("currency")
	} else {
		amount = v
	}

	d, ok := parseAmount(amount)
	if !ok {
		return nil
	}
	return &Money{Amount: d, Currency: strings.ToUpper(strings.TrimSpace(currency.String()))}
}

func parseAmount(v gjson.Result) (decimal.Decimal, bool) {
	var s string
	switch v.Type {
	case gjson.Number:
		s = v.Raw
	case gjson.String:
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v.String()), "$"))
		s = strings.ReplaceAll(s, ",", "")
	default:
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
