package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonRow_UnmarshalJSON(t *testing.T) {
	data := `{
		"key": "iq8plus",
		"reasons": ["price differs"],
		"isMismatch": true,
		"possibleMatches": [{"id": 1}],
		"hubspot": {"id": "123", "name": "Enphase IQ8+", "sku": "IQ8PLUS-72-2-US", "price": 189.5, "status": "active", "description": null},
		"zoho": null,
		"note": "not a product"
	}`

	var row ComparisonRow
	require.NoError(t, json.Unmarshal([]byte(data), &row))

	assert.Equal(t, "iq8plus", row.Key)
	assert.True(t, row.IsMismatch)
	assert.Equal(t, []string{"price differs"}, row.Reasons)
	assert.NotEmpty(t, row.PossibleMatches)
	assert.Equal(t, []string{"hubspot", "zoho"}, row.SourceNames())

	require.NotNil(t, row.Sources["hubspot"])
	assert.Equal(t, "Enphase IQ8+", row.Sources["hubspot"].NameText())
	assert.Equal(t, "123", row.Sources["hubspot"].ID.String())
	require.NotNil(t, row.Sources["hubspot"].Price)
	assert.Equal(t, "189.5", row.Sources["hubspot"].Price.String())
	assert.Nil(t, row.Sources["zoho"])
}

func TestComparisonRow_MarshalRoundTrip(t *testing.T) {
	row := ComparisonRow{
		Key: "k1",
		Sources: map[string]*CatalogProduct{
			"zuper": {Name: StringPtr("Tesla Powerwall 3")},
			"zoho":  nil,
		},
	}
	b, err := json.Marshal(row)
	require.NoError(t, err)

	var back ComparisonRow
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "k1", back.Key)
	assert.Equal(t, []string{"zoho", "zuper"}, back.SourceNames())
	assert.Equal(t, "Tesla Powerwall 3", back.Sources["zuper"].NameText())
}

func TestSourceHealth_Usable(t *testing.T) {
	msg := "timeout"
	empty := ""
	assert.True(t, SourceHealth{Configured: true}.Usable())
	assert.True(t, SourceHealth{Configured: true, Error: &empty}.Usable())
	assert.False(t, SourceHealth{Configured: false}.Usable())
	assert.False(t, SourceHealth{Configured: true, Error: &msg}.Usable())
}

func TestCategory(t *testing.T) {
	assert.True(t, CategoryModule.Valid())
	assert.False(t, Category("OTHER").Valid())
	assert.Equal(t, 0, CategoryModule.Rank())
	assert.Equal(t, 7, CategoryMonitoring.Rank())
	assert.Equal(t, len(CategoryOrder), Category("OTHER").Rank())
	assert.Equal(t, "Racking & Mounting", CategoryRacking.Label())
	assert.Equal(t, "OTHER", Category("OTHER").Label())
}

func TestCatalogProduct_LenientFields(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantSKU   string
		wantPrice string
	}{
		{"numeric sku", `{"sku": 40512, "price": 12}`, "40512", "12"},
		{"empty price", `{"sku": "A1", "price": ""}`, "A1", ""},
		{"text price", `{"sku": "A1", "price": "N/A"}`, "A1", ""},
		{"numeric text price", `{"sku": "A1", "price": "19.99"}`, "A1", "19.99"},
		{"object sku", `{"sku": {"v": 1}, "id": {"ref": 2}}`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p CatalogProduct
			require.NoError(t, json.Unmarshal([]byte(tt.data), &p))
			assert.Equal(t, tt.wantSKU, p.SKUText())
			if tt.wantPrice == "" {
				assert.Nil(t, p.Price)
			} else {
				require.NotNil(t, p.Price)
				assert.Equal(t, tt.wantPrice, p.Price.String())
			}
		})
	}
}

func TestComparisonRow_BrokenProductKeepsSource(t *testing.T) {
	var row ComparisonRow
	require.NoError(t, json.Unmarshal([]byte(`{"key": "k", "zoho": {"sku": 1}, "tags": ["a"], "count": 3}`), &row))
	assert.Equal(t, []string{"zoho"}, row.SourceNames())
	assert.Equal(t, "1", row.Sources["zoho"].SKUText())
}
