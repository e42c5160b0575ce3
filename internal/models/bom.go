// Package models contains domain types for the BOM reconciliation engine.
package models

// Category is one of the fixed equipment groups a BOM line belongs to.
type Category string

const (
	CategoryModule        Category = "MODULE"
	CategoryBattery       Category = "BATTERY"
	CategoryInverter      Category = "INVERTER"
	CategoryEVCharger     Category = "EV_CHARGER"
	CategoryRapidShutdown Category = "RAPID_SHUTDOWN"
	CategoryRacking       Category = "RACKING"
	CategoryElectricalBOS Category = "ELECTRICAL_BOS"
	CategoryMonitoring    Category = "MONITORING"
)

// CategoryOrder is the display order used when grouping and sorting items.
var CategoryOrder = []Category{
	CategoryModule,
	CategoryBattery,
	CategoryInverter,
	CategoryEVCharger,
	CategoryRapidShutdown,
	CategoryRacking,
	CategoryElectricalBOS,
	CategoryMonitoring,
}

var categoryLabels = map[Category]string{
	CategoryModule:        "Modules",
	CategoryBattery:       "Storage & Inverter",
	CategoryInverter:      "Inverter",
	CategoryEVCharger:     "EV Charger",
	CategoryRapidShutdown: "Rapid Shutdown",
	CategoryRacking:       "Racking & Mounting",
	CategoryElectricalBOS: "Electrical BOS",
	CategoryMonitoring:    "Monitoring & Controls",
}

// Valid reports whether c is part of the closed category set.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human-readable group name, or the raw value for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Rank returns the position in CategoryOrder. Unknown categories rank after all known ones.
func (c Category) Rank() int {
	for i, known := range CategoryOrder {
		if known == c {
			return i
		}
	}
	return len(CategoryOrder)
}

// BomItem is one line of a project's parts list.
type BomItem struct {
	// ID is a process-local handle, unique within one in-memory list only.
	// It is never persisted and never compared across snapshots.
	ID          int       `json:"id,omitempty" msgpack:"-"`
	Category    Category  `json:"category"`
	Brand       *string   `json:"brand"`
	Model       *string   `json:"model"`
	Description string    `json:"description"`
	Qty         FlexValue `json:"qty"`
	UnitSpec    FlexValue `json:"unitSpec"`
	UnitLabel   *string   `json:"unitLabel"`
	Source      string    `json:"source"`
	Flags       []string  `json:"flags"`
}

// BrandText returns the brand or "" when missing.
func (i BomItem) BrandText() string { return deref(i.Brand) }

// ModelText returns the model or "" when missing.
func (i BomItem) ModelText() string { return deref(i.Model) }

// ProjectInfo is the planset header extracted alongside the items.
type ProjectInfo struct {
	Customer       string    `json:"customer,omitempty"`
	Address        string    `json:"address,omitempty"`
	PlansetRev     string    `json:"plansetRev,omitempty"`
	StampDate      string    `json:"stampDate,omitempty"`
	SystemSizeKwdc FlexValue `json:"systemSizeKwdc"`
	SystemSizeKwac FlexValue `json:"systemSizeKwac"`
	ModuleCount    FlexValue `json:"moduleCount"`
	Utility        string    `json:"utility,omitempty"`
	AHJ            string    `json:"ahj,omitempty"`
}

// Validation holds the cross-checks run during extraction. Nil booleans mean "not checked".
type Validation struct {
	ModuleCountMatch     *bool    `json:"moduleCountMatch"`
	BatteryCapacityMatch *bool    `json:"batteryCapacityMatch"`
	OCPDMatch            *bool    `json:"ocpdMatch"`
	Warnings             []string `json:"warnings,omitempty"`
}

// BomData is a full parts list: project metadata, ordered items, optional validation.
type BomData struct {
	Project    ProjectInfo `json:"project"`
	Items      []BomItem   `json:"items"`
	Validation *Validation `json:"validation,omitempty"`
}

// StripIDs returns a copy of items with the process-local ids cleared.
func StripIDs(items []BomItem) []BomItem {
	out := make([]BomItem, len(items))
	for i, it := range items {
		it.ID = 0
		out[i] = it
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
