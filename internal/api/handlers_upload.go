// handlers_upload.go - Chunk reassembly endpoint and reassembled file handlers
package api

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/storage"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/upload"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store   storage.Store
	uploads ChunkReceiver
	log     *logger.Logger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(store storage.Store, uploads ChunkReceiver, log *logger.Logger) UploadHandler {
	return &UploadHandlerImpl{
		store:   store,
		uploads: uploads,
		log:     logger.Or(log),
	}
}

type uploadChunkRequest models.ChunkRequest

func (r *uploadChunkRequest) validate() error {
	if r.UploadID == "" {
		return NewValidationError("uploadId")
	}
	if r.TotalChunks < 1 {
		return NewValidationError("totalChunks")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

// HandleUploadChunk accepts one chunk. It answers {status:"pending"} until the
// final chunk arrives, then {status:"complete", blobUrl}.
func (h *UploadHandlerImpl) HandleUploadChunk(c echo.Context) error {
	var req uploadChunkRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	resp, err := h.uploads.ReceiveChunk(models.ChunkRequest(req))
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrChunkOutOfRange), errors.Is(err, upload.ErrInvalidChunk):
			return NewBadRequestError(err.Error(), nil)
		default:
			return NewInternalError("failed to store chunk", err)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleGetFile returns metadata of a reassembled file
func (h *UploadHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return fileError(err, id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleGetFileContent streams the bytes of a reassembled file
func (h *UploadHandlerImpl) HandleGetFileContent(c echo.Context) error {
	id := c.Param("id")
	rc, info, err := h.store.Open(id)
	if err != nil {
		return fileError(err, id)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("inline", map[string]string{"filename": info.Name}))
	return c.Stream(http.StatusOK, contentType(info.Name), rc)
}

func fileError(err error, id string) *APIError {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("file", id)
	}
	return NewInternalError("failed to read file", err)
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return echo.MIMEOctetStream
}
