// Package snapshot persists versioned parts-list snapshots per deal and
// diffs any two of them.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

var (
	// ErrNotFound is returned when a deal has no snapshot at the requested version.
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalid is returned when a snapshot cannot be saved as given.
	ErrInvalid = errors.New("invalid snapshot")
)

// Store is an append-only snapshot store. Save allocates the next version
// for the deal; snapshots are never updated in place.
type Store interface {
	Save(ctx context.Context, in models.NewSnapshot) (*models.BomSnapshot, error)
	Get(ctx context.Context, dealID string, version int) (*models.BomSnapshot, error)
	Latest(ctx context.Context, dealID string) (*models.BomSnapshot, error)
	// List returns summaries newest first.
	List(ctx context.Context, dealID string) ([]models.SnapshotSummary, error)
	Close() error
}

// Validate checks a snapshot before it is saved.
func Validate(in models.NewSnapshot) error {
	if strings.TrimSpace(in.DealID) == "" {
		return fmt.Errorf("%w: dealId is required", ErrInvalid)
	}
	if in.BomData.Items == nil {
		return fmt.Errorf("%w: bomData.items is required", ErrInvalid)
	}
	return nil
}

// VersionDiff is the result of diffing two saved versions of one deal.
type VersionDiff struct {
	DealID         string                    `json:"dealId"`
	From           int                       `json:"from"`
	To             int                       `json:"to"`
	Rows           []models.DiffRow          `json:"rows"`
	Counts         map[models.DiffStatus]int `json:"counts"`
	DuplicateKeysA []string                  `json:"duplicateKeysA,omitempty"`
	DuplicateKeysB []string                  `json:"duplicateKeysB,omitempty"`
}

// DiffVersions loads versions from and to of dealID and diffs their items
// with from as side A.
func DiffVersions(ctx context.Context, s Store, dealID string, from, to int) (*VersionDiff, error) {
	a, err := s.Get(ctx, dealID, from)
	if err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, dealID, to)
	if err != nil {
		return nil, err
	}

	rows := bom.Diff(a.BomData.Items, b.BomData.Items)
	return &VersionDiff{
		DealID:         dealID,
		From:           from,
		To:             to,
		Rows:           rows,
		Counts:         bom.DiffCounts(rows),
		DuplicateKeysA: bom.DuplicateKeys(a.BomData.Items),
		DuplicateKeysB: bom.DuplicateKeys(b.BomData.Items),
	}, nil
}
