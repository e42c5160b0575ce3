package models

import "time"

// FileInfo describes a stored source document, typically a reassembled planset PDF.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadID   string    `json:"uploadId,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "uploaded" or "assembled"
}
