// Package upload implements both ends of the chunked upload protocol: the
// Manager behind the reassembly endpoint and the Coordinator that splits a
// payload into sequential chunk submissions.
package upload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/metrics"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

var (
	// ErrUnknownUpload is returned when no session exists for an uploadId.
	ErrUnknownUpload = errors.New("unknown upload")
	// ErrChunkOutOfRange is returned for a chunkIndex outside 0..totalChunks-1.
	ErrChunkOutOfRange = errors.New("chunkIndex out of range")
	// ErrInvalidChunk is returned for malformed chunk requests.
	ErrInvalidChunk = errors.New("invalid chunk")
)

const defaultFilename = "upload.bin"

// Store is the part of the file store the reassembly endpoint needs.
type Store interface {
	SaveChunk(uploadID string, chunkIndex int, r io.Reader) (int64, error)
	CompleteChunkedUpload(uploadID string, name string, totalChunks int) (*models.FileInfo, error)
	DiscardChunks(uploadID string) error
}

type session struct {
	models.UploadSession
	have       map[int]bool
	assembling bool
}

// Manager tracks in-flight chunked uploads and reassembles them once every
// chunk has arrived.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	store    Store
	baseURL  string
	log      *logger.Logger
	now      func() time.Time
}

// NewManager creates a new upload manager. baseURL prefixes the blobUrl of
// reassembled files and may be empty for host-relative URLs.
func NewManager(store Store, baseURL string, log *logger.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		store:    store,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      logger.Or(log).With("component", "upload"),
		now:      time.Now,
	}
}

// BlobURL returns the public URL of a stored file.
func (m *Manager) BlobURL(fileID string) string {
	return fmt.Sprintf("%s/api/files/%s/content", m.baseURL, fileID)
}

// ReceiveChunk stores one chunk. It answers pending until every chunk of the
// upload is present, then reassembles them in index order and answers
// complete with the artifact's blobUrl.
func (m *Manager) ReceiveChunk(req models.ChunkRequest) (*models.ChunkResponse, error) {
	if err := validateChunk(req); err != nil {
		metrics.ChunksReceived.WithLabelValues("rejected").Inc()
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		metrics.ChunksReceived.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: data is not valid base64", ErrInvalidChunk)
	}

	s, err := m.sessionFor(req)
	if err != nil {
		metrics.ChunksReceived.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if s == nil {
		// Already reassembled; a resubmitted final chunk gets the same answer.
		return m.completedResponse(req.UploadID)
	}

	n, err := m.store.SaveChunk(req.UploadID, req.ChunkIndex, bytes.NewReader(data))
	if err != nil {
		metrics.ChunksReceived.WithLabelValues("failed").Inc()
		m.log.Error("saving chunk failed", "uploadId", req.UploadID, "chunk", req.ChunkIndex, "error", err)
		return nil, fmt.Errorf("saving chunk %d: %w", req.ChunkIndex, err)
	}
	metrics.UploadBytes.Add(float64(n))

	m.mu.Lock()
	s.have[req.ChunkIndex] = true
	s.Received = len(s.have)
	s.UpdatedAt = m.now()
	ready := s.Received == s.TotalChunks && !s.assembling
	if ready {
		s.assembling = true
	}
	m.mu.Unlock()

	m.log.Debug("chunk received", "uploadId", req.UploadID, "chunk", req.ChunkIndex, "total", req.TotalChunks, "bytes", n)

	if !ready {
		metrics.ChunksReceived.WithLabelValues(models.ChunkStatusPending).Inc()
		return &models.ChunkResponse{Status: models.ChunkStatusPending}, nil
	}
	return m.assemble(s)
}

// Session returns a copy of the session for uploadID.
func (m *Manager) Session(uploadID string) (*models.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[uploadID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpload, uploadID)
	}
	out := s.UploadSession
	return &out, nil
}

// CleanupStale forgets sessions idle for longer than maxAge and discards the
// chunks of those that never completed. It returns how many were removed.
func (m *Manager) CleanupStale(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	var stale []models.UploadSession
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			stale = append(stale, s.UploadSession)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		if s.State == models.UploadComplete {
			continue
		}
		if err := m.store.DiscardChunks(s.UploadID); err != nil {
			m.log.Warn("discarding stale chunks failed", "uploadId", s.UploadID, "error", err)
			continue
		}
		metrics.StaleUploadsRemoved.Inc()
		m.log.Info("stale upload discarded", "uploadId", s.UploadID, "received", s.Received, "total", s.TotalChunks)
	}
	return len(stale)
}

func validateChunk(req models.ChunkRequest) error {
	if strings.TrimSpace(req.UploadID) == "" {
		return fmt.Errorf("%w: uploadId is required", ErrInvalidChunk)
	}
	if req.TotalChunks < 1 {
		return fmt.Errorf("%w: totalChunks must be at least 1", ErrInvalidChunk)
	}
	if req.ChunkIndex < 0 || req.ChunkIndex >= req.TotalChunks {
		return fmt.Errorf("%w: %d not in 0..%d", ErrChunkOutOfRange, req.ChunkIndex, req.TotalChunks-1)
	}
	return nil
}

// sessionFor returns the open session for req, creating it on first sight.
// A nil session with nil error means the upload already completed.
func (m *Manager) sessionFor(req models.ChunkRequest) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[req.UploadID]
	if !ok {
		s = &session{
			UploadSession: models.UploadSession{
				UploadID:    req.UploadID,
				Filename:    cleanFilename(req.Filename),
				TotalChunks: req.TotalChunks,
				State:       models.UploadUploading,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			have: make(map[int]bool),
		}
		m.sessions[req.UploadID] = s
		m.log.Info("upload started", "uploadId", req.UploadID, "filename", s.Filename, "totalChunks", req.TotalChunks)
		return s, nil
	}

	if s.TotalChunks != req.TotalChunks {
		return nil, fmt.Errorf("%w: totalChunks changed from %d to %d", ErrInvalidChunk, s.TotalChunks, req.TotalChunks)
	}
	switch s.State {
	case models.UploadComplete:
		return nil, nil
	case models.UploadFailed:
		return nil, fmt.Errorf("%w: upload %s already failed: %s", ErrInvalidChunk, req.UploadID, s.Error)
	}
	return s, nil
}

func (m *Manager) assemble(s *session) (*models.ChunkResponse, error) {
	info, err := m.store.CompleteChunkedUpload(s.UploadID, s.Filename, s.TotalChunks)
	if err != nil {
		m.fail(s.UploadID, err)
		return nil, fmt.Errorf("assembling upload: %w", err)
	}

	blobURL := m.BlobURL(info.ID)

	m.mu.Lock()
	s.State = models.UploadComplete
	s.FileID = info.ID
	s.BlobURL = blobURL
	s.UpdatedAt = m.now()
	m.mu.Unlock()

	metrics.ChunksReceived.WithLabelValues(models.ChunkStatusComplete).Inc()
	metrics.UploadsCompleted.Inc()
	m.log.Info("upload reassembled", "uploadId", s.UploadID, "fileId", info.ID, "bytes", info.Size)

	return &models.ChunkResponse{Status: models.ChunkStatusComplete, BlobURL: blobURL}, nil
}

func (m *Manager) completedResponse(uploadID string) (*models.ChunkResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[uploadID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpload, uploadID)
	}
	return &models.ChunkResponse{Status: models.ChunkStatusComplete, BlobURL: s.BlobURL}, nil
}

func (m *Manager) fail(uploadID string, err error) {
	m.mu.Lock()
	if s, ok := m.sessions[uploadID]; ok {
		s.State = models.UploadFailed
		s.Error = err.Error()
		s.UpdatedAt = m.now()
	}
	m.mu.Unlock()

	metrics.ChunksReceived.WithLabelValues("failed").Inc()
	m.log.Error("upload failed", "uploadId", uploadID, "error", err)
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return defaultFilename
	}
	return name
}
