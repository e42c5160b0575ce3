package bom

import (
	"strings"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// DefaultSimilarityThreshold is the tuned Jaccard cutoff for the token fallback.
const DefaultSimilarityThreshold = 0.5

// Matcher decides whether a catalog product plausibly represents a BOM line.
type Matcher struct {
	// SimilarityThreshold is the minimum Jaccard similarity for the token fallback.
	SimilarityThreshold float64
}

// NewMatcher returns a matcher using the default threshold.
func NewMatcher() Matcher {
	return Matcher{SimilarityThreshold: DefaultSimilarityThreshold}
}

// Matches reports whether product p represents item.
//
// Items with neither brand nor model never match; blank text counts as absent. A normalized model contained
// in the product's normalized name or sku is a match regardless of threshold.
// Otherwise brand+model tokens are compared to name+sku tokens.
func (m Matcher) Matches(p *models.CatalogProduct, item models.BomItem) bool {
	if p == nil {
		return false
	}
	if NormalizePtr(item.Brand) == "" && NormalizePtr(item.Model) == "" {
		return false
	}
	if ModelContained(p, item) {
		return true
	}
	return m.Similarity(p, item) >= m.SimilarityThreshold
}

// ModelContained reports whether the item's normalized model is a substring of
// the product's normalized name or sku.
func ModelContained(p *models.CatalogProduct, item models.BomItem) bool {
	if p == nil {
		return false
	}
	model := NormalizePtr(item.Model)
	if model == "" {
		return false
	}
	return strings.Contains(NormalizePtr(p.Name), model) ||
		strings.Contains(NormalizePtr(p.SKU), model)
}

// Similarity is the token similarity between item brand+model and product name+sku.
func (m Matcher) Similarity(p *models.CatalogProduct, item models.BomItem) float64 {
	if p == nil {
		return 0
	}
	return TokenSimilarity(
		TokenizeAll(item.Brand, item.Model),
		TokenizeAll(p.Name, p.SKU),
	)
}
