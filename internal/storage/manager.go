// Package storage keeps uploaded source documents and the chunks they are
// reassembled from on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

// ErrNotFound is returned for unknown file ids.
var ErrNotFound = errors.New("file not found")

// Store defines the interface for file storage.
type Store interface {
	Get(id string) (*models.FileInfo, error)
	List(limit int) ([]*models.FileInfo, error)
	Open(id string) (io.ReadCloser, *models.FileInfo, error)
	SaveChunk(uploadID string, chunkIndex int, r io.Reader) (int64, error)
	CompleteChunkedUpload(uploadID string, name string, totalChunks int) (*models.FileInfo, error)
	DiscardChunks(uploadID string) error
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.FileInfo
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.FileInfo),
	}, nil
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return info, nil
}

// List returns the most recent files.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info)
	}

	// Sort by UploadedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Open returns the stored bytes of a file.
func (s *LocalStore) Open(id string) (io.ReadCloser, *models.FileInfo, error) {
	info, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.uploadDir, id))
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return f, info, nil
}

// SaveChunk saves a single chunk to a temporary location. Saving the same
// index twice replaces the earlier chunk, so resubmitted chunks are harmless.
func (s *LocalStore) SaveChunk(uploadID string, chunkIndex int, r io.Reader) (int64, error) {
	chunkDir := s.chunkDir(uploadID)
	if err := os.MkdirAll(chunkDir, 0755); err != nil {
		return 0, fmt.Errorf("creating chunk directory: %w", err)
	}

	path := filepath.Join(chunkDir, fmt.Sprintf("chunk_%d", chunkIndex))
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating chunk file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("writing chunk: %w", err)
	}

	return n, nil
}

// CompleteChunkedUpload appends chunks 0..totalChunks-1 in order into a final
// file. A missing chunk fails the whole assembly and leaves no partial file.
func (s *LocalStore) CompleteChunkedUpload(uploadID string, name string, totalChunks int) (*models.FileInfo, error) {
	id := uuid.New().String()
	finalPath := filepath.Join(s.uploadDir, id)
	chunkDir := s.chunkDir(uploadID)

	out, err := os.Create(finalPath)
	if err != nil {
		return nil, fmt.Errorf("creating final file: %w", err)
	}

	totalSize, err := appendChunks(out, chunkDir, totalChunks)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(finalPath)
		return nil, err
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       totalSize,
		UploadID:   uploadID,
		UploadedAt: time.Now(),
		Status:     "assembled",
	}

	s.mu.Lock()
	s.files[id] = info
	s.mu.Unlock()

	// Cleanup chunks
	os.RemoveAll(chunkDir)

	return info, nil
}

// DiscardChunks removes whatever chunks an abandoned upload left behind.
func (s *LocalStore) DiscardChunks(uploadID string) error {
	if err := os.RemoveAll(s.chunkDir(uploadID)); err != nil {
		return fmt.Errorf("removing chunks: %w", err)
	}
	return nil
}

func (s *LocalStore) chunkDir(uploadID string) string {
	return filepath.Join(s.uploadDir, "chunks", filepath.Base(uploadID))
}

func appendChunks(out io.Writer, chunkDir string, totalChunks int) (int64, error) {
	var totalSize int64
	for i := 0; i < totalChunks; i++ {
		chunkPath := filepath.Join(chunkDir, fmt.Sprintf("chunk_%d", i))
		in, err := os.Open(chunkPath)
		if err != nil {
			return 0, fmt.Errorf("opening chunk %d: %w", i, err)
		}

		n, err := io.Copy(out, in)
		in.Close()
		if err != nil {
			return 0, fmt.Errorf("copying chunk %d: %w", i, err)
		}
		totalSize += n
	}
	return totalSize, nil
}
