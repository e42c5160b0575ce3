package snapshot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

func item(cat models.Category, brand, model string, qty int64) models.BomItem {
	return models.BomItem{
		Category: cat,
		Brand:    models.StringPtr(brand),
		Model:    models.StringPtr(model),
		Qty:      models.IntValue(qty),
		Source:   "manual",
	}
}

func newSnapshot(dealID string, items ...models.BomItem) models.NewSnapshot {
	return models.NewSnapshot{
		DealID:   dealID,
		DealName: "Smith Residence",
		BomData: models.BomData{
			Project: models.ProjectInfo{Customer: "Smith"},
			Items:   items,
		},
		SourceFile: models.StringPtr("planset-rev2.pdf"),
	}
}

func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"duckdb": func(t *testing.T) Store {
			s, err := NewDuckStore(filepath.Join(t.TempDir(), "snapshots.duckdb"), logger.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_VersionsAreMonotonicPerDeal(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			v1, err := s.Save(ctx, newSnapshot("deal-1", item(models.CategoryModule, "Qcell", "Q.PEAK", 20)))
			require.NoError(t, err)
			v2, err := s.Save(ctx, newSnapshot("deal-1", item(models.CategoryModule, "Qcell", "Q.PEAK", 24)))
			require.NoError(t, err)
			other, err := s.Save(ctx, newSnapshot("deal-2"))
			require.NoError(t, err)

			assert.Equal(t, 1, v1.Version)
			assert.Equal(t, 2, v2.Version)
			assert.Equal(t, 1, other.Version)
			assert.NotEqual(t, v1.ID, v2.ID)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			in := newSnapshot("deal-1",
				item(models.CategoryModule, "Qcell", "Q.PEAK", 20),
				item(models.CategoryBattery, "Tesla", "Powerwall 3", 1),
			)
			in.BomData.Items[0].ID = 41
			in.BomData.Items[1].ID = 42
			in.BomData.Items[0].UnitSpec = models.NumberValue(decimal.RequireFromString("410"))
			in.BomData.Items[0].UnitLabel = models.StringPtr("W")

			saved, err := s.Save(ctx, in)
			require.NoError(t, err)

			got, err := s.Get(ctx, "deal-1", saved.Version)
			require.NoError(t, err)
			assert.Equal(t, saved.ID, got.ID)
			assert.Equal(t, "Smith Residence", got.DealName)
			assert.Equal(t, "planset-rev2.pdf", *got.SourceFile)
			assert.Nil(t, got.BlobURL)
			assert.Nil(t, got.SavedBy)
			assert.Equal(t, "Smith", got.BomData.Project.Customer)
			require.Len(t, got.BomData.Items, 2)

			// ids are reassigned on load, never the caller's
			assert.Equal(t, 1, got.BomData.Items[0].ID)
			assert.Equal(t, 2, got.BomData.Items[1].ID)
			assert.Equal(t, "20", got.BomData.Items[0].Qty.String())
			assert.Equal(t, "410", got.BomData.Items[0].UnitSpec.String())
			assert.Equal(t, "Powerwall 3", *got.BomData.Items[1].Model)
			assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestStore_LatestAndList(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				items := make([]models.BomItem, i+1)
				for j := range items {
					items[j] = item(models.CategoryRacking, "IronRidge", "XR10", int64(j))
				}
				_, err := s.Save(ctx, newSnapshot("deal-1", items...))
				require.NoError(t, err)
			}

			latest, err := s.Latest(ctx, "deal-1")
			require.NoError(t, err)
			assert.Equal(t, 3, latest.Version)

			list, err := s.List(ctx, "deal-1")
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, []int{3, 2, 1}, []int{list[0].Version, list[1].Version, list[2].Version})
			assert.Equal(t, 3, list[0].ItemCount)
			assert.Equal(t, 1, list[2].ItemCount)

			empty, err := s.List(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			_, err := s.Latest(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Save(ctx, newSnapshot("deal-1"))
			require.NoError(t, err)
			_, err = s.Get(ctx, "deal-1", 2)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Get(ctx, "deal-1", 0)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_RejectsInvalid(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			_, err := s.Save(ctx, models.NewSnapshot{BomData: models.BomData{Items: []models.BomItem{}}})
			assert.ErrorIs(t, err, ErrInvalid)

			_, err = s.Save(ctx, models.NewSnapshot{DealID: "deal-1"})
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestStore_ConcurrentSavesGetDistinctVersions(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			const n = 8
			var wg sync.WaitGroup
			versions := make(chan int, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					snap, err := s.Save(ctx, newSnapshot("deal-1"))
					if assert.NoError(t, err) {
						versions <- snap.Version
					}
				}()
			}
			wg.Wait()
			close(versions)

			seen := map[int]bool{}
			for v := range versions {
				assert.False(t, seen[v], "version %d allocated twice", v)
				seen[v] = true
			}
			assert.Len(t, seen, n)
		})
	}
}

func TestDiffVersions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Save(ctx, newSnapshot("deal-1",
		item(models.CategoryModule, "Qcell", "Q.PEAK", 20),
		item(models.CategoryInverter, "Enphase", "IQ8+", 20),
	))
	require.NoError(t, err)
	_, err = s.Save(ctx, newSnapshot("deal-1",
		item(models.CategoryModule, "Qcell", "Q.PEAK", 24),
		item(models.CategoryInverter, "Enphase", "IQ8+", 20),
		item(models.CategoryModule, "Qcell", "Q.PEAK", 26),
	))
	require.NoError(t, err)

	d, err := DiffVersions(ctx, s, "deal-1", 1, 2)
	require.NoError(t, err)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, models.DiffChanged, d.Rows[0].Status)
	assert.Equal(t, "20", d.Rows[0].QtyA.String())
	assert.Equal(t, "26", d.Rows[0].QtyB.String())
	assert.Equal(t, models.DiffUnchanged, d.Rows[1].Status)
	assert.Equal(t, 1, d.Counts[models.DiffChanged])
	assert.Empty(t, d.DuplicateKeysA)
	assert.Len(t, d.DuplicateKeysB, 1)

	_, err = DiffVersions(ctx, s, "deal-1", 1, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}
