package bom

import (
	"sort"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// DiscoverSources returns every source name found on any row, sorted.
// Sources are not hard-coded because the comparison service adds and drops them.
func DiscoverSources(rows []models.ComparisonRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for name := range row.Sources {
			if models.IsRowMetadataKey(name) {
				continue
			}
			seen[name] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Reconcile computes, for every item, which sources hold a matching product.
// The result has exactly one entry per item id and one boolean per discovered source.
// Items must carry ids unique within the list (see AssignIDs).
func Reconcile(items []models.BomItem, rows []models.ComparisonRow, m Matcher) map[int]models.CatalogStatus {
	return reconcile(items, rows, DiscoverSources(rows), nil, m)
}

// ReconcileResult is the outcome of reconciling against a full comparison payload.
type ReconcileResult struct {
	Sources  []string                     `json:"sources"`
	Statuses map[int]models.CatalogStatus `json:"statuses"`
	// SourceWarnings carries health errors for sources that were skipped.
	SourceWarnings map[string]string `json:"sourceWarnings,omitempty"`
}

// ReconcileComparison reconciles against rows and health together. Sources named
// only in health are included; sources that are unconfigured, errored or listed
// in disabled stay false for every item.
func ReconcileComparison(items []models.BomItem, cmp models.Comparison, m Matcher, disabled ...string) ReconcileResult {
	seen := make(map[string]struct{})
	for _, name := range DiscoverSources(cmp.Rows) {
		seen[name] = struct{}{}
	}
	for name := range cmp.Health {
		seen[name] = struct{}{}
	}
	sources := sortedKeys(seen)

	skip := make(map[string]struct{})
	warnings := make(map[string]string)
	for name, h := range cmp.Health {
		if h.Usable() {
			continue
		}
		skip[name] = struct{}{}
		switch {
		case h.Error != nil && *h.Error != "":
			warnings[name] = *h.Error
		case !h.Configured:
			warnings[name] = "source not configured"
		}
	}
	for _, name := range disabled {
		if _, ok := seen[name]; ok {
			skip[name] = struct{}{}
			if _, has := warnings[name]; !has {
				warnings[name] = "source disabled"
			}
		}
	}

	res := ReconcileResult{
		Sources:  sources,
		Statuses: reconcile(items, cmp.Rows, sources, skip, m),
	}
	if len(warnings) > 0 {
		res.SourceWarnings = warnings
	}
	return res
}

func reconcile(items []models.BomItem, rows []models.ComparisonRow, sources []string, skip map[string]struct{}, m Matcher) map[int]models.CatalogStatus {
	active := make([]string, 0, len(sources))
	for _, s := range sources {
		if _, ok := skip[s]; !ok {
			active = append(active, s)
		}
	}

	out := make(map[int]models.CatalogStatus, len(items))
	for _, item := range items {
		status := make(models.CatalogStatus, len(sources))
		for _, s := range sources {
			status[s] = false
		}
		remaining := len(active)
		for _, row := range rows {
			if remaining == 0 {
				break
			}
			for _, s := range active {
				if status[s] {
					continue
				}
				if m.Matches(row.Sources[s], item) {
					status[s] = true
					remaining--
				}
			}
		}
		out[item.ID] = status
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
