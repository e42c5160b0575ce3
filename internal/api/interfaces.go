// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// BomHandler handles stateless parts-list operations
type BomHandler interface {
	HandleReconcile(c echo.Context) error
	HandleDiff(c echo.Context) error
	HandleDiffMsgpack(c echo.Context) error
	HandleExtract(c echo.Context) error
}

// SnapshotHandler handles versioned snapshot operations
type SnapshotHandler interface {
	HandleSaveSnapshot(c echo.Context) error
	HandleListSnapshots(c echo.Context) error
	HandleGetLatestSnapshot(c echo.Context) error
	HandleGetSnapshot(c echo.Context) error
	HandleDiffSnapshots(c echo.Context) error
}

// UploadHandler handles the chunk reassembly endpoint and reassembled files
type UploadHandler interface {
	HandleUploadChunk(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleGetFileContent(c echo.Context) error
}

// CatalogClient fetches catalog comparisons.
// This allows mocking in tests
type CatalogClient interface {
	Configured() bool
	Comparison(ctx context.Context, dealID string) (*models.Comparison, error)
}

// Extractor turns a reassembled document into a parts list.
// This allows mocking in tests
type Extractor interface {
	Configured() bool
	Extract(ctx context.Context, blobURL string) (*models.BomData, error)
}

// ChunkReceiver is the reassembly side of the chunked upload protocol
type ChunkReceiver interface {
	ReceiveChunk(req models.ChunkRequest) (*models.ChunkResponse, error)
}
