package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"partforge/internal/catalog"
	"partforge/internal/config"
	"partforge/internal/models"
	"partforge/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(&config.Config{Provider: "http", ProviderURL: "http://catalog.local/api"})
	require.NoError(t, err)
	assert.IsType(t, &provider.HTTPProvider{}, p)

	p, err = NewProvider(&config.Config{Provider: "file", ProviderFile: "fixture.json"})
	require.NoError(t, err)
	assert.IsType(t, &provider.FileProvider{}, p)

	_, err = NewProvider(&config.Config{Provider: "ftp"})
	assert.Error(t, err)
}

func TestFromConfigWithFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	fixture := `{
		"video-card": [{"brand":"NVIDIA","model":"RTX 4070","price":{"amount":549,"currency":"USD"},"url":"https://shop.test/4070"}],
		"power-supply": [{"manufacturer":"Seasonic","model":"Focus GX-750","price":{"amount":119.99,"currency":"USD"}}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	db := newTestDB(t)
	cycle, err := FromConfig(&config.Config{
		Provider:     "file",
		ProviderFile: path,
		Region:       "us",
		Currency:     "USD",
		Categories:   []catalog.Entry{catalog.DefaultEntry(catalog.GPU), catalog.DefaultEntry(catalog.PSU)},
		RetailerSlug: "pcpartpicker",
		RetailerName: "PCPartPicker",
	}, db)
	require.NoError(t, err)

	report, err := cycle.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.OffersInserted)

	var offers []models.Offer
	require.NoError(t, db.Order("id").Find(&offers).Error)
	require.Len(t, offers, 2)
	assert.Equal(t, "https://shop.test/4070", offers[0].URL)
	assert.Equal(t, catalog.PSU.PageURL(), offers[1].URL)
}
