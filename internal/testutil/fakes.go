package testutil

import (
	"context"
	"sync"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// FakeCatalog serves a fixed comparison for every deal
type FakeCatalog struct {
	Comp *models.Comparison
	Err  error

	mu    sync.Mutex
	Deals []string
}

func (f *FakeCatalog) Configured() bool { return f != nil }

func (f *FakeCatalog) Comparison(ctx context.Context, dealID string) (*models.Comparison, error) {
	f.mu.Lock()
	f.Deals = append(f.Deals, dealID)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Comp, nil
}

// FakeExtractor returns a fixed parts list for every document
type FakeExtractor struct {
	Data *models.BomData
	Err  error

	mu       sync.Mutex
	BlobURLs []string
}

func (f *FakeExtractor) Configured() bool { return f != nil }

func (f *FakeExtractor) Extract(ctx context.Context, blobURL string) (*models.BomData, error) {
	f.mu.Lock()
	f.BlobURLs = append(f.BlobURLs, blobURL)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Data, nil
}
