// Package export writes the stored catalog to an Excel workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"partforge/internal/catalog"
	"partforge/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	PartsSheet  = "parts"
	OffersSheet = "offers"
)

var (
	partsHeader  = []interface{}{"id", "sku", "manufacturer", "model", "category", "price_usd", "canonical_url", "created_at", "updated_at"}
	offersHeader = []interface{}{"part_sku", "retailer", "url", "price_usd", "in_stock", "fetched_at"}
)

type Options struct {
	// Category limits the export to one category; empty exports everything.
	Category catalog.Category
}

type Summary struct {
	Parts  int
	Offers int
}

type offerRow struct {
	PartSKU      string
	RetailerSlug string
	URL          string
	Price        decimal.Decimal `gorm:"column:price_usd"`
	InStock      bool
	FetchedAt    time.Time
}

// Write renders parts and offers into a workbook and writes it to w.
func Write(ctx context.Context, db *gorm.DB, w io.Writer, opts Options) (Summary, error) {
	var summary Summary

	partsQ := db.WithContext(ctx).Model(&models.Part{}).Order("category").Order("sku")
	offersQ := db.WithContext(ctx).Table("offers").
		Select("parts.sku AS part_sku, retailers.slug AS retailer_slug, offers.url, offers.price_usd, offers.in_stock, offers.fetched_at").
		Joins("JOIN parts ON parts.id = offers.part_id").
		Joins("JOIN retailers ON retailers.id = offers.retailer_id").
		Order("parts.sku").Order("offers.url")
	if opts.Category != "" {
		partsQ = partsQ.Where("category = ?", string(opts.Category))
		offersQ = offersQ.Where("parts.category = ?", string(opts.Category))
	}

	var parts []models.Part
	if err := partsQ.Find(&parts).Error; err != nil {
		return summary, fmt.Errorf("load parts: %w", err)
	}
	var offers []offerRow
	if err := offersQ.Scan(&offers).Error; err != nil {
		return summary, fmt.Errorf("load offers: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PartsSheet); err != nil {
		return summary, err
	}
	if _, err := f.NewSheet(OffersSheet); err != nil {
		return summary, err
	}

	if err := writeRow(f, PartsSheet, 1, partsHeader); err != nil {
		return summary, err
	}
	for i, p := range parts {
		row := []interface{}{
			p.ID, p.SKU, p.Manufacturer, p.Model, p.Category,
			p.Price.InexactFloat64(), p.CanonicalURL,
			p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writeRow(f, PartsSheet, i+2, row); err != nil {
			return summary, err
		}
	}

	if err := writeRow(f, OffersSheet, 1, offersHeader); err != nil {
		return summary, err
	}
	for i, o := range offers {
		row := []interface{}{
			o.PartSKU, o.RetailerSlug, o.URL,
			o.Price.InexactFloat64(), o.InStock,
			o.FetchedAt.UTC().Format(time.RFC3339),
		}
		if err := writeRow(f, OffersSheet, i+2, row); err != nil {
			return summary, err
		}
	}

	_ = f.SetColWidth(PartsSheet, "B", "D", 28)
	_ = f.SetColWidth(PartsSheet, "G", "G", 48)
	_ = f.SetColWidth(OffersSheet, "A", "A", 28)
	_ = f.SetColWidth(OffersSheet, "C", "C", 48)
	_ = f.SetPanes(PartsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.Write(w); err != nil {
		return summary, fmt.Errorf("write workbook: %w", err)
	}

	summary.Parts = len(parts)
	summary.Offers = len(offers)
	return summary, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
