// mock_storage.go - In-memory storage implementation for testing
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/storage"
)

// MockStorage implements storage.Store in memory
type MockStorage struct {
	files    map[string]*models.FileInfo
	fileData map[string][]byte
	chunks   map[string]map[int][]byte // uploadID -> chunkIndex -> data
	mu       sync.RWMutex
	nextID   int

	// FailAssembly makes CompleteChunkedUpload return this error when set
	FailAssembly error
}

// NewMockStorage creates an empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:    make(map[string]*models.FileInfo),
		fileData: make(map[string][]byte),
		chunks:   make(map[string]map[int][]byte),
	}
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return file, nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]*models.FileInfo, 0, len(m.files))
	for _, file := range m.files {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].UploadedAt.After(files[j].UploadedAt) })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, *models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(m.fileData[id])), file, nil
}

func (m *MockStorage) SaveChunk(uploadID string, chunkIndex int, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chunks[uploadID] == nil {
		m.chunks[uploadID] = make(map[int][]byte)
	}
	m.chunks[uploadID][chunkIndex] = data
	return int64(len(data)), nil
}

func (m *MockStorage) CompleteChunkedUpload(uploadID string, name string, totalChunks int) (*models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAssembly != nil {
		return nil, m.FailAssembly
	}

	uploadChunks, ok := m.chunks[uploadID]
	if !ok {
		return nil, fmt.Errorf("upload not found: %s", uploadID)
	}

	// Concatenate all chunks
	var data bytes.Buffer
	for i := 0; i < totalChunks; i++ {
		chunk, ok := uploadChunks[i]
		if !ok {
			return nil, fmt.Errorf("missing chunk %d", i)
		}
		data.Write(chunk)
	}

	m.nextID++
	file := &models.FileInfo{
		ID:         fmt.Sprintf("test-file-%d", m.nextID),
		Name:       name,
		Size:       int64(data.Len()),
		UploadID:   uploadID,
		UploadedAt: time.Now(),
		Status:     "assembled",
	}

	m.files[file.ID] = file
	m.fileData[file.ID] = data.Bytes()
	delete(m.chunks, uploadID)

	return file, nil
}

func (m *MockStorage) DiscardChunks(uploadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, uploadID)
	return nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddFile adds a file directly to the mock
func (m *MockStorage) AddFile(id string, name string, data []byte) *models.FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	file := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}
	m.files[id] = file
	m.fileData[id] = data
	return file
}

// GetFileData returns the file content
func (m *MockStorage) GetFileData(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[id]
	return data, ok
}

// PendingChunks returns how many chunks are buffered for an upload
func (m *MockStorage) PendingChunks(uploadID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks[uploadID])
}
