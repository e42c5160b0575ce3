package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/metrics"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// MemoryStore is a process-local Store. Snapshots are kept encoded so callers
// can never mutate a saved version through a returned pointer.
type MemoryStore struct {
	mu    sync.RWMutex
	deals map[string][]memRecord
	now   func() time.Time
}

type memRecord struct {
	snap models.BomSnapshot
	data []byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deals: make(map[string][]memRecord),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, in models.NewSnapshot) (*models.BomSnapshot, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	data := in.BomData
	data.Items = models.StripIDs(data.Items)
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding bom data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := memRecord{
		snap: models.BomSnapshot{
			ID:         uuid.New().String(),
			DealID:     in.DealID,
			DealName:   in.DealName,
			Version:    len(s.deals[in.DealID]) + 1,
			SourceFile: in.SourceFile,
			BlobURL:    in.BlobURL,
			SavedBy:    in.SavedBy,
			CreatedAt:  s.now().UTC(),
		},
		data: encoded,
	}
	s.deals[in.DealID] = append(s.deals[in.DealID], rec)
	metrics.SnapshotsSaved.Inc()

	return rec.load()
}

func (s *MemoryStore) Get(ctx context.Context, dealID string, version int) (*models.BomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.deals[dealID]
	if version < 1 || version > len(recs) {
		return nil, fmt.Errorf("%w: %s v%d", ErrNotFound, dealID, version)
	}
	return recs[version-1].load()
}

func (s *MemoryStore) Latest(ctx context.Context, dealID string) (*models.BomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.deals[dealID]
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dealID)
	}
	return recs[len(recs)-1].load()
}

func (s *MemoryStore) List(ctx context.Context, dealID string) ([]models.SnapshotSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.SnapshotSummary, 0, len(s.deals[dealID]))
	for _, rec := range s.deals[dealID] {
		snap, err := rec.load()
		if err != nil {
			return nil, err
		}
		list = append(list, models.SnapshotSummary{
			ID:         snap.ID,
			DealID:     snap.DealID,
			DealName:   snap.DealName,
			Version:    snap.Version,
			ItemCount:  len(snap.BomData.Items),
			SourceFile: snap.SourceFile,
			SavedBy:    snap.SavedBy,
			CreatedAt:  snap.CreatedAt,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Version > list[j].Version })
	return list, nil
}

func (s *MemoryStore) Close() error { return nil }

func (r memRecord) load() (*models.BomSnapshot, error) {
	snap := r.snap
	if err := json.Unmarshal(r.data, &snap.BomData); err != nil {
		return nil, fmt.Errorf("decoding bom data: %w", err)
	}
	if snap.BomData.Items == nil {
		snap.BomData.Items = []models.BomItem{}
	}
	bom.AssignIDs(snap.BomData.Items)
	return &snap, nil
}
