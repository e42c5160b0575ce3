package models

import "time"

// Chunk reassembly response statuses.
const (
	ChunkStatusPending  = "pending"
	ChunkStatusComplete = "complete"
)

// ChunkRequest is the wire body of one chunk submission.
type ChunkRequest struct {
	UploadID    string `json:"uploadId"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	Data        string `json:"data"` // Base64-encoded chunk
	Filename    string `json:"filename"`
}

// ChunkResponse is the reassembly endpoint's answer to one chunk.
type ChunkResponse struct {
	Status  string `json:"status"`
	BlobURL string `json:"blobUrl,omitempty"`
}

// UploadState is the lifecycle of one chunked upload.
type UploadState string

const (
	UploadIdle      UploadState = "idle"
	UploadUploading UploadState = "uploading"
	UploadComplete  UploadState = "complete"
	UploadFailed    UploadState = "failed"
)

// UploadSession tracks one chunked upload for its lifetime only.
type UploadSession struct {
	UploadID    string      `json:"uploadId"`
	Filename    string      `json:"filename"`
	TotalChunks int         `json:"totalChunks"`
	Received    int         `json:"received"`
	State       UploadState `json:"state"`
	BlobURL     string      `json:"blobUrl,omitempty"`
	FileID      string      `json:"fileId,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
