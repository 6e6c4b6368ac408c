package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "cpu", want: CPU},
		{in: " GPU ", want: GPU},
		{in: "video-card", want: GPU},
		{in: "memory", want: RAM},
		{in: "internal-hard-drive", want: Storage},
		{in: "case", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseListKeepsOrder(t *testing.T) {
	got, err := ParseList("psu, cpu,,gpu,cpu")
	require.NoError(t, err)
	assert.Equal(t, []Category{PSU, CPU, GPU}, got)

	_, err = ParseList("cpu,fan")
	assert.Error(t, err)
}

func TestDefaultEntry(t *testing.T) {
	e := DefaultEntry(GPU)
	assert.Equal(t, "video-card", e.ExternalKey)
	assert.Equal(t, "https://pcpartpicker.com/products/video-card/", e.PageURL)

	for _, c := range All {
		assert.True(t, c.Valid())
		assert.NotEmpty(t, c.PageURL())
	}
	assert.Empty(t, Category("case").PageURL())
}
