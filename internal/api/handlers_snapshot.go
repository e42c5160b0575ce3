// handlers_snapshot.go - Snapshot persistence and version diff handlers
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/metrics"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/snapshot"
)

// SnapshotHandlerImpl implements the SnapshotHandler interface
type SnapshotHandlerImpl struct {
	store snapshot.Store
	log   *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(store snapshot.Store, log *logger.Logger) SnapshotHandler {
	return &SnapshotHandlerImpl{
		store: store,
		log:   logger.Or(log),
	}
}

type saveSnapshotRequest struct {
	DealID     string          `json:"dealId"`
	DealName   string          `json:"dealName"`
	BomData    json.RawMessage `json:"bomData"`
	SourceFile *string         `json:"sourceFile"`
	BlobURL    *string         `json:"blobUrl"`
	SavedBy    *string         `json:"savedBy"`
}

func (r *saveSnapshotRequest) validate() error {
	if strings.TrimSpace(r.DealID) == "" {
		return NewValidationError("dealId")
	}
	if len(r.BomData) == 0 {
		return NewValidationError("bomData")
	}
	return nil
}

// HandleSaveSnapshot stores a parts list as the deal's next version
func (h *SnapshotHandlerImpl) HandleSaveSnapshot(c echo.Context) error {
	var req saveSnapshotRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	data, err := bom.ParseBomData(req.BomData)
	if err != nil {
		return NewInvalidPartsListError(err)
	}

	snap, err := h.store.Save(c.Request().Context(), models.NewSnapshot{
		DealID:     req.DealID,
		DealName:   req.DealName,
		BomData:    *data,
		SourceFile: req.SourceFile,
		BlobURL:    req.BlobURL,
		SavedBy:    req.SavedBy,
	})
	if err != nil {
		if errors.Is(err, snapshot.ErrInvalid) {
			return NewBadRequestError(err.Error(), nil)
		}
		return NewInternalError("failed to save snapshot", err)
	}

	return c.JSON(http.StatusCreated, snap)
}

// HandleListSnapshots returns a deal's snapshot summaries, newest first
func (h *SnapshotHandlerImpl) HandleListSnapshots(c echo.Context) error {
	list, err := h.store.List(c.Request().Context(), c.Param("dealId"))
	if err != nil {
		return NewInternalError("failed to list snapshots", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetLatestSnapshot returns the highest version for a deal
func (h *SnapshotHandlerImpl) HandleGetLatestSnapshot(c echo.Context) error {
	dealID := c.Param("dealId")
	snap, err := h.store.Latest(c.Request().Context(), dealID)
	if err != nil {
		return snapshotError(err, dealID)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleGetSnapshot returns one version of a deal's snapshot
func (h *SnapshotHandlerImpl) HandleGetSnapshot(c echo.Context) error {
	dealID := c.Param("dealId")
	version, err := parseVersion(c.Param("version"))
	if err != nil {
		return NewValidationError("version")
	}

	snap, err := h.store.Get(c.Request().Context(), dealID, version)
	if err != nil {
		return snapshotError(err, dealID+" v"+strconv.Itoa(version))
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleDiffSnapshots diffs two versions of a deal. When to is omitted the
// latest version is used; when from is omitted it defaults to the version
// before to.
func (h *SnapshotHandlerImpl) HandleDiffSnapshots(c echo.Context) error {
	ctx := c.Request().Context()
	dealID := c.Param("dealId")

	to := 0
	if s := c.QueryParam("to"); s != "" {
		v, err := parseVersion(s)
		if err != nil {
			return NewValidationError("to")
		}
		to = v
	} else {
		latest, err := h.store.Latest(ctx, dealID)
		if err != nil {
			return snapshotError(err, dealID)
		}
		to = latest.Version
	}

	from := to - 1
	if s := c.QueryParam("from"); s != "" {
		v, err := parseVersion(s)
		if err != nil {
			return NewValidationError("from")
		}
		from = v
	}
	if from < 1 {
		return NewBadRequestError("need two versions to diff", nil)
	}

	d, err := snapshot.DiffVersions(ctx, h.store, dealID, from, to)
	if err != nil {
		return snapshotError(err, dealID)
	}
	metrics.ObserveDiff(d.Counts)

	return c.JSON(http.StatusOK, d)
}

func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, errors.New("version must be positive")
	}
	return v, nil
}

func snapshotError(err error, id string) *APIError {
	if errors.Is(err, snapshot.ErrNotFound) {
		return NewNotFoundError("snapshot", id)
	}
	return NewInternalError("failed to load snapshot", err)
}
