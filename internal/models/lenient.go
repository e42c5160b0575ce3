package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Flags added when an item field could not be read as a number or text.
const (
	FlagInvalidQty      = "INVALID_QTY"
	FlagInvalidUnitSpec = "INVALID_UNIT_SPEC"
)

// Upstream payloads are loosely typed: part numbers arrive as numbers,
// prices as "N/A". The helpers below read what they can and return null for
// the rest instead of failing the whole document.

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isNullRaw(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// lenientText reads strings as is and numbers or booleans as their literal
// text. Anything else is nil.
func lenientText(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if isNullRaw(raw) {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return &s
	case '{', '[':
		return nil
	case 't', 'f':
		b, err := strconv.ParseBool(string(raw))
		if err != nil {
			return nil
		}
		s := strconv.FormatBool(b)
		return &s
	}
	if _, err := decimal.NewFromString(string(raw)); err != nil {
		return nil
	}
	s := string(raw)
	return &s
}

// lenientDecimal reads numbers and numeric strings. Anything else is nil.
func lenientDecimal(raw json.RawMessage) *decimal.Decimal {
	text := lenientText(raw)
	if text == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*text))
	if err != nil {
		return nil
	}
	return &d
}

// lenientFlex decodes a FlexValue. ok is false when a non-null value had to
// be dropped.
func lenientFlex(raw json.RawMessage) (FlexValue, bool) {
	var v FlexValue
	if err := v.UnmarshalJSON(raw); err != nil {
		return FlexValue{}, false
	}
	return v, true
}

func textOrEmpty(raw json.RawMessage) string {
	return deref(lenientText(raw))
}

func lenientStrings(raw json.RawMessage) []string {
	if isNullRaw(raw) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if s := lenientText(e); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (p *CatalogProduct) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, _ := lenientFlex(raw["id"])
	*p = CatalogProduct{
		ID:          id,
		Name:        lenientText(raw["name"]),
		SKU:         lenientText(raw["sku"]),
		Price:       lenientDecimal(raw["price"]),
		Status:      lenientText(raw["status"]),
		Description: lenientText(raw["description"]),
	}
	return nil
}

func (i *BomItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	item := BomItem{
		Category:    Category(textOrEmpty(raw["category"])),
		Brand:       lenientText(raw["brand"]),
		Model:       lenientText(raw["model"]),
		Description: textOrEmpty(raw["description"]),
		UnitLabel:   lenientText(raw["unitLabel"]),
		Source:      textOrEmpty(raw["source"]),
		Flags:       lenientStrings(raw["flags"]),
	}
	if id := lenientDecimal(raw["id"]); id != nil && id.IsInteger() {
		item.ID = int(id.IntPart())
	}

	var ok bool
	if item.Qty, ok = lenientFlex(raw["qty"]); !ok {
		item.Flags = append(item.Flags, FlagInvalidQty)
	}
	if item.UnitSpec, ok = lenientFlex(raw["unitSpec"]); !ok {
		item.Flags = append(item.Flags, FlagInvalidUnitSpec)
	}

	*i = item
	return nil
}
