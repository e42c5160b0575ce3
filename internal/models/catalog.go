package models

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// CatalogProduct is one product row as reported by one catalog source.
type CatalogProduct struct {
	ID          FlexValue        `json:"id"`
	Name        *string          `json:"name"`
	SKU         *string          `json:"sku"`
	Price       *decimal.Decimal `json:"price"`
	Status      *string          `json:"status"`
	Description *string          `json:"description"`
}

// NameText returns the product name or "".
func (p CatalogProduct) NameText() string { return deref(p.Name) }

// SKUText returns the product sku or "".
func (p CatalogProduct) SKUText() string { return deref(p.SKU) }

// Metadata keys of a comparison row. Every other key is a catalog source name.
const (
	RowKeyKey             = "key"
	RowKeyReasons         = "reasons"
	RowKeyIsMismatch      = "isMismatch"
	RowKeyPossibleMatches = "possibleMatches"
)

// IsRowMetadataKey reports whether k is one of the fixed row keys.
func IsRowMetadataKey(k string) bool {
	switch k {
	case RowKeyKey, RowKeyReasons, RowKeyIsMismatch, RowKeyPossibleMatches:
		return true
	}
	return false
}

// ComparisonRow aligns products across catalog sources. Sources holds an
// entry (possibly nil) for each source key present on the wire row.
type ComparisonRow struct {
	Key             string
	Reasons         []string
	IsMismatch      bool
	PossibleMatches json.RawMessage
	Sources         map[string]*CatalogProduct
}

// SourceNames returns the sources present on this row, sorted.
func (r ComparisonRow) SourceNames() []string {
	names := make([]string, 0, len(r.Sources))
	for k := range r.Sources {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (r *ComparisonRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	row := ComparisonRow{Sources: make(map[string]*CatalogProduct)}
	for k, v := range raw {
		switch k {
		case RowKeyKey:
			if err := json.Unmarshal(v, &row.Key); err != nil {
				return err
			}
		case RowKeyReasons:
			if err := json.Unmarshal(v, &row.Reasons); err != nil {
				return err
			}
		case RowKeyIsMismatch:
			if err := json.Unmarshal(v, &row.IsMismatch); err != nil {
				return err
			}
		case RowKeyPossibleMatches:
			row.PossibleMatches = append(json.RawMessage(nil), v...)
		default:
			if isNullRaw(v) {
				row.Sources[k] = nil
				continue
			}
			if !isObject(v) {
				// scalars and lists are annotations, not source columns
				continue
			}
			var p CatalogProduct
			if err := json.Unmarshal(v, &p); err != nil {
				row.Sources[k] = nil
				continue
			}
			row.Sources[k] = &p
		}
	}
	*r = row
	return nil
}

func (r ComparisonRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Sources)+4)
	for k, p := range r.Sources {
		out[k] = p
	}
	out[RowKeyKey] = r.Key
	reasons := r.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	out[RowKeyReasons] = reasons
	out[RowKeyIsMismatch] = r.IsMismatch
	if len(r.PossibleMatches) > 0 {
		out[RowKeyPossibleMatches] = r.PossibleMatches
	}
	return json.Marshal(out)
}

// SourceHealth reports whether a catalog source could be read.
type SourceHealth struct {
	Configured bool    `json:"configured"`
	Count      int     `json:"count"`
	Error      *string `json:"error"`
}

// Usable reports whether the source's rows can be trusted for matching.
func (h SourceHealth) Usable() bool {
	return h.Configured && (h.Error == nil || *h.Error == "")
}

// Comparison is the payload returned by the catalog comparison service.
type Comparison struct {
	Rows   []ComparisonRow         `json:"rows"`
	Health map[string]SourceHealth `json:"health,omitempty"`
}

// CatalogStatus maps source name to "this item matched a product from the source".
type CatalogStatus map[string]bool
