// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version   string
	catalog   CatalogClient
	extractor Extractor
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, catalog CatalogClient, extractor Extractor) HealthHandler {
	return &HealthHandlerImpl{
		version:   version,
		catalog:   catalog,
		extractor: extractor,
	}
}

// HandleHealth returns server health status and which upstream services are wired
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"services": map[string]bool{
			"catalog":    h.catalog != nil && h.catalog.Configured(),
			"extraction": h.extractor != nil && h.extractor.Configured(),
		},
	})
}
