package models

import "time"

// BomSnapshot is an immutable, versioned capture of a deal's parts list.
type BomSnapshot struct {
	ID         string    `json:"id"`
	DealID     string    `json:"dealId"`
	DealName   string    `json:"dealName"`
	Version    int       `json:"version"`
	BomData    BomData   `json:"bomData"`
	SourceFile *string   `json:"sourceFile"`
	BlobURL    *string   `json:"blobUrl"`
	SavedBy    *string   `json:"savedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SnapshotSummary is the list view of a snapshot without its items.
type SnapshotSummary struct {
	ID         string    `json:"id"`
	DealID     string    `json:"dealId"`
	DealName   string    `json:"dealName"`
	Version    int       `json:"version"`
	ItemCount  int       `json:"itemCount"`
	SourceFile *string   `json:"sourceFile"`
	SavedBy    *string   `json:"savedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewSnapshot is the input for saving a snapshot. The version is allocated by the store.
type NewSnapshot struct {
	DealID     string  `json:"dealId"`
	DealName   string  `json:"dealName"`
	BomData    BomData `json:"bomData"`
	SourceFile *string `json:"sourceFile"`
	BlobURL    *string `json:"blobUrl"`
	SavedBy    *string `json:"savedBy"`
}
