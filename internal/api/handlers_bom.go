// handlers_bom.go - Reconciliation, diff and extraction handlers
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/config"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/metrics"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// BomHandlerImpl implements the BomHandler interface
type BomHandlerImpl struct {
	catalog   CatalogClient
	extractor Extractor
	rules     *config.MatchRules
	log       *logger.Logger
}

// NewBomHandler creates a new parts-list handler
func NewBomHandler(catalog CatalogClient, extractor Extractor, rules *config.MatchRules, log *logger.Logger) BomHandler {
	if rules == nil {
		rules = config.DefaultMatchRules()
	}
	return &BomHandlerImpl{
		catalog:   catalog,
		extractor: extractor,
		rules:     rules,
		log:       logger.Or(log),
	}
}

type reconcileRequest struct {
	Items      json.RawMessage    `json:"items"`
	Comparison *models.Comparison `json:"comparison"`
	DealID     string             `json:"dealId"`
}

type reconcileResponse struct {
	Items []models.BomItem `json:"items"`
	bom.ReconcileResult
}

// HandleReconcile matches items against catalog rows, either supplied inline
// or fetched from the comparison service for dealId
func (h *BomHandlerImpl) HandleReconcile(c echo.Context) error {
	var req reconcileRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return err
	}

	items, err := bom.ParseItems(req.Items)
	if err != nil {
		return NewInvalidPartsListError(err)
	}

	cmp := req.Comparison
	if cmp == nil {
		if strings.TrimSpace(req.DealID) == "" {
			return NewValidationError("comparison or dealId")
		}
		if h.catalog == nil || !h.catalog.Configured() {
			return NewServiceUnavailableError("catalog comparison service not configured")
		}
		cmp, err = h.catalog.Comparison(c.Request().Context(), req.DealID)
		if err != nil {
			return NewUpstreamError("catalog", err)
		}
	}

	start := time.Now()
	res := bom.ReconcileComparison(items, *cmp, h.rules.Matcher(), h.rules.DisabledSources...)
	metrics.ObserveReconcile(len(items), time.Since(start))

	for source, warning := range res.SourceWarnings {
		h.log.Debug("catalog source skipped", "source", source, "reason", warning)
	}

	return c.JSON(http.StatusOK, reconcileResponse{Items: items, ReconcileResult: res})
}

type diffRequest struct {
	ItemsA json.RawMessage `json:"itemsA"`
	ItemsB json.RawMessage `json:"itemsB"`
}

type diffResponse struct {
	Rows           []models.DiffRow          `json:"rows" msgpack:"rows"`
	Counts         map[models.DiffStatus]int `json:"counts" msgpack:"counts"`
	DuplicateKeysA []string                  `json:"duplicateKeysA,omitempty" msgpack:"duplicateKeysA,omitempty"`
	DuplicateKeysB []string                  `json:"duplicateKeysB,omitempty" msgpack:"duplicateKeysB,omitempty"`
}

// HandleDiff compares two item lists
func (h *BomHandlerImpl) HandleDiff(c echo.Context) error {
	resp, err := h.diff(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleDiffMsgpack compares two item lists and returns a msgpack body
func (h *BomHandlerImpl) HandleDiffMsgpack(c echo.Context) error {
	resp, err := h.diff(c)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(resp)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *BomHandlerImpl) diff(c echo.Context) (*diffResponse, error) {
	var req diffRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return nil, err
	}

	itemsA, err := bom.ParseItems(req.ItemsA)
	if err != nil {
		return nil, NewInvalidPartsListError(fmt.Errorf("itemsA: %w", err))
	}
	itemsB, err := bom.ParseItems(req.ItemsB)
	if err != nil {
		return nil, NewInvalidPartsListError(fmt.Errorf("itemsB: %w", err))
	}

	rows := bom.Diff(itemsA, itemsB)
	counts := bom.DiffCounts(rows)
	metrics.ObserveDiff(counts)

	return &diffResponse{
		Rows:           rows,
		Counts:         counts,
		DuplicateKeysA: bom.DuplicateKeys(itemsA),
		DuplicateKeysB: bom.DuplicateKeys(itemsB),
	}, nil
}

type extractRequest struct {
	BlobURL string `json:"blobUrl"`
}

func (r *extractRequest) validate() error {
	if strings.TrimSpace(r.BlobURL) == "" {
		return NewValidationError("blobUrl")
	}
	return nil
}

// HandleExtract hands a reassembled document to the extraction service
func (h *BomHandlerImpl) HandleExtract(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if h.extractor == nil || !h.extractor.Configured() {
		return NewServiceUnavailableError("extraction service not configured")
	}

	data, err := h.extractor.Extract(c.Request().Context(), absoluteURL(c, req.BlobURL))
	if err != nil {
		if errors.Is(err, bom.ErrInvalidPartsList) {
			return NewInvalidPartsListError(err)
		}
		return NewUpstreamError("extraction", err)
	}
	return c.JSON(http.StatusOK, data)
}

// absoluteURL resolves host-relative blob URLs against the incoming request so
// the extraction service can fetch them
func absoluteURL(c echo.Context, u string) string {
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		return c.Scheme() + "://" + c.Request().Host + u
	}
	return u
}

// decodeJSONBody decodes the request body into v, rejecting anything that is
// not a JSON object
func decodeJSONBody(c echo.Context, v interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read body", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return nil
}
