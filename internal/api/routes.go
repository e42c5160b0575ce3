// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/config"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/snapshot"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Files     storage.Store
	Uploads   ChunkReceiver
	Snapshots snapshot.Store
	Catalog   CatalogClient
	Extractor Extractor
	Rules     *config.MatchRules
	Log       *logger.Logger
	Version   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Bom      BomHandler
	Snapshot SnapshotHandler
	Upload   UploadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	log := logger.Or(deps.Log)
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Catalog, deps.Extractor),
		Bom:      NewBomHandler(deps.Catalog, deps.Extractor, deps.Rules, log),
		Snapshot: NewSnapshotHandler(deps.Snapshots, log),
		Upload:   NewUploadHandler(deps.Files, deps.Uploads, log),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Stateless parts-list operations
	bomGroup := e.Group("/api/bom")
	bomGroup.POST("/reconcile", handlers.Bom.HandleReconcile)
	bomGroup.POST("/diff", handlers.Bom.HandleDiff)
	bomGroup.POST("/diff/msgpack", handlers.Bom.HandleDiffMsgpack)
	bomGroup.POST("/extract", handlers.Bom.HandleExtract)

	// Chunk reassembly endpoint
	bomGroup.POST("/upload/chunk", handlers.Upload.HandleUploadChunk)

	// Snapshot routes
	snapGroup := e.Group("/api/bom/snapshots")
	snapGroup.POST("", handlers.Snapshot.HandleSaveSnapshot)
	snapGroup.GET("/:dealId", handlers.Snapshot.HandleListSnapshots)
	snapGroup.GET("/:dealId/latest", handlers.Snapshot.HandleGetLatestSnapshot)
	snapGroup.GET("/:dealId/diff", handlers.Snapshot.HandleDiffSnapshots)
	snapGroup.GET("/:dealId/:version", handlers.Snapshot.HandleGetSnapshot)

	// Reassembled files
	fileGroup := e.Group("/api/files")
	fileGroup.GET("/:id", handlers.Upload.HandleGetFile)
	fileGroup.GET("/:id/content", handlers.Upload.HandleGetFileContent)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
