package bom

import (
	"sort"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// keySep separates the parts of a diff key. It cannot survive Normalize, so
// normalized brand and model text can never collide with it.
const keySep = "‖"

// DiffKey identifies an item across snapshots: category plus normalized brand and model.
func DiffKey(item models.BomItem) string {
	return string(item.Category) + keySep + NormalizePtr(item.Brand) + keySep + NormalizePtr(item.Model)
}

// DuplicateKeys returns the diff keys held by more than one item, in first-seen order.
// Diff keeps only the last item for such keys.
func DuplicateKeys(items []models.BomItem) []string {
	counts := make(map[string]int, len(items))
	var order []string
	for _, it := range items {
		k := DiffKey(it)
		counts[k]++
		if counts[k] == 2 {
			order = append(order, k)
		}
	}
	return order
}

// Diff compares two parts lists, A being the older. Every key present in
// either list yields exactly one row. Rows are ordered changed, added, removed,
// unchanged; then by category display order; then by model.
func Diff(itemsA, itemsB []models.BomItem) []models.DiffRow {
	mapA, order := indexByKey(itemsA, nil)
	mapB, order := indexByKey(itemsB, order)

	rows := make([]models.DiffRow, 0, len(order))
	for _, key := range order {
		a, inA := mapA[key]
		b, inB := mapB[key]
		switch {
		case inA && !inB:
			rows = append(rows, newRow(models.DiffRemoved, a, &a, nil))
		case inB && !inA:
			rows = append(rows, newRow(models.DiffAdded, b, nil, &b))
		default:
			status := models.DiffUnchanged
			if !a.Qty.Equal(b.Qty) || !a.UnitSpec.Equal(b.UnitSpec) {
				status = models.DiffChanged
			}
			rows = append(rows, newRow(status, b, &a, &b))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		if r1, r2 := ri.Status.Rank(), rj.Status.Rank(); r1 != r2 {
			return r1 < r2
		}
		if c1, c2 := ri.Category.Rank(), rj.Category.Rank(); c1 != c2 {
			return c1 < c2
		}
		return modelText(ri.Model) < modelText(rj.Model)
	})
	return rows
}

// DiffCounts tallies rows per status.
func DiffCounts(rows []models.DiffRow) map[models.DiffStatus]int {
	counts := map[models.DiffStatus]int{
		models.DiffChanged:   0,
		models.DiffAdded:     0,
		models.DiffRemoved:   0,
		models.DiffUnchanged: 0,
	}
	for _, r := range rows {
		counts[r.Status]++
	}
	return counts
}

func indexByKey(items []models.BomItem, order []string) (map[string]models.BomItem, []string) {
	seen := make(map[string]struct{}, len(order))
	for _, k := range order {
		seen[k] = struct{}{}
	}
	m := make(map[string]models.BomItem, len(items))
	for _, it := range items {
		k := DiffKey(it)
		m[k] = it
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			order = append(order, k)
		}
	}
	return m, order
}

func newRow(status models.DiffStatus, ident models.BomItem, a, b *models.BomItem) models.DiffRow {
	row := models.DiffRow{
		Status:      status,
		Category:    ident.Category,
		Brand:       ident.Brand,
		Model:       ident.Model,
		Description: ident.Description,
	}
	if a != nil {
		row.QtyA, row.SpecA = a.Qty, a.UnitSpec
	}
	if b != nil {
		row.QtyB, row.SpecB = b.Qty, b.UnitSpec
	}
	return row
}

func modelText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
