package ingest

import (
	"context"
	"errors"
	"testing"

	"partforge/internal/catalog"
	"partforge/internal/database"
	"partforge/internal/models"
	"partforge/internal/normalize"
	"partforge/internal/provider"
	"partforge/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockProvider implements provider.Provider for testing.
type MockProvider struct {
	fetchFunc func(ctx context.Context, region string, categories []catalog.Entry, forceRefresh bool) (map[catalog.Category][]provider.RawListing, error)
	calls     int
}

func (m *MockProvider) Fetch(ctx context.Context, region string, categories []catalog.Entry, forceRefresh bool) (map[catalog.Category][]provider.RawListing, error) {
	m.calls++
	return m.fetchFunc(ctx, region, categories, forceRefresh)
}

func staticProvider(data map[catalog.Category][]provider.RawListing) *MockProvider {
	return &MockProvider{fetchFunc: func(context.Context, string, []catalog.Entry, bool) (map[catalog.Category][]provider.RawListing, error) {
		return data, nil
	}}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func str(s string) *string { return &s }

func money(amount, currency string) *provider.Money {
	return &provider.Money{Amount: decimal.RequireFromString(amount), Currency: currency}
}

func newCycle(db *gorm.DB, p provider.Provider, categories ...catalog.Category) *Cycle {
	entries := make([]catalog.Entry, 0, len(categories))
	for _, c := range categories {
		entries = append(entries, catalog.DefaultEntry(c))
	}
	return NewCycle(p, normalize.New("USD"), store.New(db), Options{
		Region:     "us",
		Categories: entries,
		Retailer:   Retailer{Slug: "pcpartpicker", Name: "PCPartPicker"},
	})
}

func TestCycleEndToEnd(t *testing.T) {
	db := newTestDB(t)
	p := staticProvider(map[catalog.Category][]provider.RawListing{
		catalog.CPU: {{Brand: str("Intel"), Model: str("i7-12700K"), Price: money("350.00", "USD")}},
	})

	report, err := newCycle(db, p, catalog.CPU).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, map[catalog.Category]int{catalog.CPU: 1}, report.PerCategory)
	assert.Equal(t, 1, report.OffersInserted)

	var retailers []models.Retailer
	require.NoError(t, db.Find(&retailers).Error)
	require.Len(t, retailers, 1)
	assert.Equal(t, "pcpartpicker", retailers[0].Slug)

	var parts []models.Part
	require.NoError(t, db.Find(&parts).Error)
	require.Len(t, parts, 1)
	assert.Equal(t, "intel-i7-12700k", parts[0].SKU)
	assert.True(t, decimal.RequireFromString("350.00").Equal(parts[0].Price))
	assert.Equal(t, "cpu", parts[0].Category)

	var offers []models.Offer
	require.NoError(t, db.Find(&offers).Error)
	require.Len(t, offers, 1)
	assert.Equal(t, parts[0].ID, offers[0].PartID)
	assert.Equal(t, retailers[0].ID, offers[0].RetailerID)
}

func TestCycleIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	p := staticProvider(map[catalog.Category][]provider.RawListing{
		catalog.CPU: {
			{Brand: str("Intel"), Model: str("i7-12700K"), Price: money("350.00", "USD")},
			{Brand: str("AMD"), Model: str("Ryzen 7 7700X"), Price: money("299.00", "USD")},
		},
		catalog.GPU: {
			{Brand: str("NVIDIA"), Model: str("GeForce RTX 4060 Ti"), Price: money("379.99", "USD")},
		},
	})
	cycle := newCycle(db, p, catalog.CPU, catalog.GPU)

	_, err := cycle.Run(context.Background())
	require.NoError(t, err)
	second, err := cycle.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, second.Total)
	assert.Zero(t, second.OffersInserted)
	assert.Equal(t, 2, p.calls)

	var count int64
	require.NoError(t, db.Model(&models.Part{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
	require.NoError(t, db.Model(&models.Offer{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
	require.NoError(t, db.Model(&models.Retailer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCyclePriceLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	listing := provider.RawListing{Brand: str("Intel"), Model: str("i7-12700K"), Price: money("350.00", "USD")}
	p := staticProvider(map[catalog.Category][]provider.RawListing{catalog.CPU: {listing}})
	cycle := newCycle(db, p, catalog.CPU)

	_, err := cycle.Run(context.Background())
	require.NoError(t, err)

	listing.Price = money("389.00", "USD")
	p.fetchFunc = func(context.Context, string, []catalog.Entry, bool) (map[catalog.Category][]provider.RawListing, error) {
		return map[catalog.Category][]provider.RawListing{catalog.CPU: {listing}}, nil
	}
	_, err = cycle.Run(context.Background())
	require.NoError(t, err)

	var part models.Part
	require.NoError(t, db.Where("sku = ?", "intel-i7-12700k").Take(&part).Error)
	assert.True(t, decimal.RequireFromString("389.00").Equal(part.Price), "got %s", part.Price)

	var offers []models.Offer
	require.NoError(t, db.Find(&offers).Error)
	require.Len(t, offers, 1)
	assert.True(t, decimal.RequireFromString("350.00").Equal(offers[0].Price))
}

func TestCycleSkipsRejectedListings(t *testing.T) {
	db := newTestDB(t)
	p := staticProvider(map[catalog.Category][]provider.RawListing{
		catalog.RAM: {
			{Brand: str("Corsair")},
			{Brand: str("Corsair"), Model: str("Vengeance 32GB"), Price: money("94.99", "USD")},
			{Brand: str("G.Skill"), Model: str("")},
		},
	})

	report, err := newCycle(db, p, catalog.RAM).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Rejected)
	assert.Equal(t, 1, report.PartsUpserted)

	var parts []models.Part
	require.NoError(t, db.Find(&parts).Error)
	require.Len(t, parts, 1)
	assert.Equal(t, "corsair-vengeance-32gb", parts[0].SKU)
}

func TestCycleCurrencyFiltering(t *testing.T) {
	db := newTestDB(t)
	p := staticProvider(map[catalog.Category][]provider.RawListing{
		catalog.PSU: {{Brand: str("Seasonic"), Model: str("Focus GX-750"), Price: money("120.00", "EUR")}},
	})

	report, err := newCycle(db, p, catalog.PSU).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.PartsUpserted)
	assert.Zero(t, report.OffersInserted)

	var count int64
	require.NoError(t, db.Model(&models.Part{}).Where("sku = ?", "seasonic-focus-gx-750").Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.Model(&models.Offer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCycleFollowsConfigurationOrder(t *testing.T) {
	db := newTestDB(t)
	p := staticProvider(map[catalog.Category][]provider.RawListing{
		catalog.CPU: {{Brand: str("Intel"), Model: str("i5")}},
		catalog.GPU: {{Brand: str("AMD"), Model: str("RX 7800 XT")}},
	})

	_, err := newCycle(db, p, catalog.GPU, catalog.CPU).Run(context.Background())
	require.NoError(t, err)

	var parts []models.Part
	require.NoError(t, db.Order("id").Find(&parts).Error)
	require.Len(t, parts, 2)
	assert.Equal(t, "gpu", parts[0].Category)
	assert.Equal(t, "cpu", parts[1].Category)
}

func TestCycleForcesRefresh(t *testing.T) {
	db := newTestDB(t)
	p := &MockProvider{fetchFunc: func(_ context.Context, region string, categories []catalog.Entry, forceRefresh bool) (map[catalog.Category][]provider.RawListing, error) {
		assert.True(t, forceRefresh)
		assert.Equal(t, "us", region)
		assert.Len(t, categories, 2)
		return nil, nil
	}}

	report, err := newCycle(db, p, catalog.CPU, catalog.GPU).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Equal(t, map[catalog.Category]int{catalog.CPU: 0, catalog.GPU: 0}, report.PerCategory)
}

func TestCycleFetchErrorAborts(t *testing.T) {
	db := newTestDB(t)
	p := &MockProvider{fetchFunc: func(context.Context, string, []catalog.Entry, bool) (map[catalog.Category][]provider.RawListing, error) {
		return nil, &provider.FetchError{Category: catalog.CPU, Err: errors.New("rate limited")}
	}}

	_, err := newCycle(db, p, catalog.CPU).Run(context.Background())
	var fetchErr *provider.FetchError
	require.True(t, errors.As(err, &fetchErr))

	var count int64
	require.NoError(t, db.Model(&models.Retailer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCycleStoreErrorKeepsEarlierCategories(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_gpu", func(tx *gorm.DB) {
		if p, ok := tx.Statement.Dest.(*models.Part); ok && p.Category == "gpu" {
			_ = tx.AddError(errors.New("connection reset"))
		}
	}))

	p := staticProvider(map[catalog.Category][]provider.RawListing{
		catalog.CPU: {{Brand: str("Intel"), Model: str("i5-13400F"), Price: money("179.99", "USD")}},
		catalog.GPU: {{Brand: str("NVIDIA"), Model: str("RTX 4070"), Price: money("549.00", "USD")}},
		catalog.RAM: {{Brand: str("Corsair"), Model: str("Vengeance"), Price: money("94.99", "USD")}},
	})

	_, err := newCycle(db, p, catalog.CPU, catalog.GPU, catalog.RAM).Run(context.Background())
	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr))

	var parts []models.Part
	require.NoError(t, db.Find(&parts).Error)
	require.Len(t, parts, 1)
	assert.Equal(t, "cpu", parts[0].Category)
}

func TestReportHumanDuration(t *testing.T) {
	r := &Report{Duration: 12345 * 1e6}
	assert.Equal(t, "12.3s", r.HumanDuration())
}
