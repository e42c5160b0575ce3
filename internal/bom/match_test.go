package bom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

func product(name, sku string) *models.CatalogProduct {
	p := &models.CatalogProduct{}
	if name != "" {
		p.Name = models.StringPtr(name)
	}
	if sku != "" {
		p.SKU = models.StringPtr(sku)
	}
	return p
}

func item(cat models.Category, brand, model string) models.BomItem {
	it := models.BomItem{Category: cat}
	if brand != "" {
		it.Brand = models.StringPtr(brand)
	}
	if model != "" {
		it.Model = models.StringPtr(model)
	}
	return it
}

func TestMatcher_EnphaseIQ8Plus(t *testing.T) {
	m := NewMatcher()
	it := item(models.CategoryInverter, "Enphase", "IQ8+")
	p := product("Enphase IQ8PLUS-72-2-US Microinverter", "IQ8PLUS-72-2-US")

	// "iq8" is contained in "iq8plus", so the substring step decides.
	assert.True(t, ModelContained(p, it))

	// The token fallback alone would not: {enphase, iq8} vs {enphase, iq8plus, microinverter}.
	sim := m.Similarity(p, it)
	assert.InDelta(t, 0.25, sim, 1e-9)
	assert.Less(t, sim, m.SimilarityThreshold)

	assert.True(t, m.Matches(p, it))
}

func TestMatcher_Matches(t *testing.T) {
	tests := []struct {
		name    string
		product *models.CatalogProduct
		item    models.BomItem
		want    bool
	}{
		{
			name:    "model substring of name",
			product: product("Qcells Q.PEAK DUO BLK ML-G10+ 400W", ""),
			item:    item(models.CategoryModule, "Qcells", "Q.PEAK DUO BLK ML-G10+ 400"),
			want:    true,
		},
		{
			name:    "model substring of sku only",
			product: product("Battery 13.5kWh", "1707000-21-K"),
			item:    item(models.CategoryBattery, "", "1707000-21-K"),
			want:    true,
		},
		{
			name:    "token fallback above threshold",
			product: product("Alpha Pure REC 405W", ""),
			item:    item(models.CategoryModule, "REC", "Alpha Pure 405"),
			want:    true,
		},
		{
			name:    "token fallback below threshold",
			product: product("SolarEdge Home Hub Inverter 7.6kW", "SE7600H-US"),
			item:    item(models.CategoryInverter, "Tesla", "Powerwall 3"),
			want:    false,
		},
		{
			name:    "brand only can match by tokens",
			product: product("IronRidge", ""),
			item:    item(models.CategoryRacking, "IronRidge", ""),
			want:    true,
		},
		{
			name:    "no brand and no model never matches",
			product: product("Main breaker 200A", "200A"),
			item:    models.BomItem{Category: models.CategoryElectricalBOS, Description: "Main breaker 200A"},
			want:    false,
		},
		{
			name:    "nil product",
			product: nil,
			item:    item(models.CategoryModule, "REC", "Alpha"),
			want:    false,
		},
		{
			name:    "product without name or sku",
			product: &models.CatalogProduct{},
			item:    item(models.CategoryModule, "REC", "Alpha"),
			want:    false,
		},
	}
	m := NewMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.product, tt.item))
		})
	}
}

func TestMatcher_SubstringIgnoresThreshold(t *testing.T) {
	p := product("Enphase IQ Combiner 5 X-IQ-AM1-240-5", "X-IQ-AM1-240-5")
	it := item(models.CategoryElectricalBOS, "Enphase", "X-IQ-AM1-240-5")

	for _, th := range []float64{0, 0.5, 0.99, 1, 2} {
		m := Matcher{SimilarityThreshold: th}
		assert.True(t, m.Matches(p, it), "threshold %v", th)
	}
}

func TestMatcher_ThresholdIsConfigurable(t *testing.T) {
	p := product("Alpha Pure REC 405W", "")
	it := item(models.CategoryModule, "REC", "Alpha Pure 405")

	// similarity is 3/5
	assert.True(t, Matcher{SimilarityThreshold: 0.6}.Matches(p, it))
	assert.False(t, Matcher{SimilarityThreshold: 0.7}.Matches(p, it))
}

func TestMatcher_BlankItemNeverMatches(t *testing.T) {
	p := product("Enphase IQ8PLUS-72-2-US Microinverter", "IQ8PLUS-72-2-US")
	blank := models.BomItem{Brand: models.StringPtr(""), Model: models.StringPtr("  -- ")}

	for _, th := range []float64{0, 0.5} {
		assert.False(t, Matcher{SimilarityThreshold: th}.Matches(p, blank), "threshold %v", th)
	}
}
