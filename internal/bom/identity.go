package bom

import "github.com/zachsrosen/pb-operations-suite-sub002/internal/models"

// IDSequence mints process-local item ids for one in-memory list or session.
// It is not safe for concurrent use; give each list its own sequence.
type IDSequence struct {
	next int
}

// Next returns the next id, starting at 1.
func (s *IDSequence) Next() int {
	s.next++
	return s.next
}

// Assign overwrites the ids of items in place with fresh ones from s.
func (s *IDSequence) Assign(items []models.BomItem) {
	for i := range items {
		items[i].ID = s.Next()
	}
}

// AssignIDs gives items fresh ids 1..n. Use it whenever a list is rebuilt
// from persisted or external data.
func AssignIDs(items []models.BomItem) {
	var seq IDSequence
	seq.Assign(items)
}
