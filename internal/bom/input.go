package bom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// ErrInvalidPartsList marks malformed parts-list input. Its message is meant
// to be shown to the user as is.
var ErrInvalidPartsList = errors.New("invalid parts list")

// InputError is a user input error found while reading a parts list.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Unwrap() error { return ErrInvalidPartsList }

func inputErrorf(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// ParseBomData decodes a parts list and assigns fresh item ids. Input without
// an "items" list is rejected before any other work is done.
func ParseBomData(data []byte) (*models.BomData, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, inputErrorf("parts list must be a JSON object")
	}

	items, err := ParseItems(raw["items"])
	if err != nil {
		return nil, err
	}

	bd := &models.BomData{Items: items}
	if p, ok := raw["project"]; ok && !isNull(p) {
		if err := json.Unmarshal(p, &bd.Project); err != nil {
			return nil, inputErrorf("project: %v", err)
		}
	}
	if v, ok := raw["validation"]; ok && !isNull(v) {
		var val models.Validation
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, inputErrorf("validation: %v", err)
		}
		bd.Validation = &val
	}
	return bd, nil
}

// ParseItems decodes an items array. A missing or non-list value is an input
// error; so is an entry that is not an object. Flags are de-duplicated.
func ParseItems(data json.RawMessage) ([]models.BomItem, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return nil, inputErrorf("items is required")
	}
	if data[0] != '[' {
		return nil, inputErrorf("items must be a list")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, inputErrorf("items must be a list")
	}

	items := make([]models.BomItem, 0, len(entries))
	for i, e := range entries {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			return nil, inputErrorf("items[%d] must be an object", i)
		}
		var it models.BomItem
		if err := json.Unmarshal(e, &it); err != nil {
			return nil, inputErrorf("items[%d]: %v", i, err)
		}
		it.Flags = dedupe(it.Flags)
		items = append(items, it)
	}
	AssignIDs(items)
	return items, nil
}

func dedupe(flags []string) []string {
	if len(flags) < 2 {
		return flags
	}
	seen := make(map[string]struct{}, len(flags))
	out := flags[:0]
	for _, f := range flags {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
