package models

// DiffStatus classifies one key when comparing two parts lists.
type DiffStatus string

const (
	DiffChanged   DiffStatus = "changed"
	DiffAdded     DiffStatus = "added"
	DiffRemoved   DiffStatus = "removed"
	DiffUnchanged DiffStatus = "unchanged"
)

// Rank orders statuses so actionable rows come first.
func (s DiffStatus) Rank() int {
	switch s {
	case DiffChanged:
		return 0
	case DiffAdded:
		return 1
	case DiffRemoved:
		return 2
	default:
		return 3
	}
}

// DiffRow is one keyed line of a snapshot comparison. The A side is the older list.
type DiffRow struct {
	Status      DiffStatus `json:"status" msgpack:"status"`
	Category    Category   `json:"category" msgpack:"category"`
	Brand       *string    `json:"brand" msgpack:"brand"`
	Model       *string    `json:"model" msgpack:"model"`
	Description string     `json:"description" msgpack:"description"`
	QtyA        FlexValue  `json:"qtyA" msgpack:"qtyA"`
	QtyB        FlexValue  `json:"qtyB" msgpack:"qtyB"`
	SpecA       FlexValue  `json:"specA" msgpack:"specA"`
	SpecB       FlexValue  `json:"specB" msgpack:"specB"`
}
