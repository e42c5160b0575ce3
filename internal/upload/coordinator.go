package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/config"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/remote"
)

// ErrEmptyPayload is returned when there is nothing to upload.
var ErrEmptyPayload = errors.New("payload is empty")

// Progress is reported after each accepted chunk.
type Progress struct {
	Part  int // 1-based
	Total int
	Bytes int64 // raw bytes sent so far
}

func (p Progress) String() string {
	return fmt.Sprintf("part %d of %d", p.Part, p.Total)
}

// ChunkError reports which part stopped an upload.
type ChunkError struct {
	Part  int // 1-based
	Total int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("upload failed at part %d of %d: %v", e.Part, e.Total, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Coordinator uploads a payload to a reassembly endpoint one chunk at a time.
type Coordinator struct {
	endpoint       string
	client         *http.Client
	chunkSize      int
	maxAttempts    uint
	initialBackoff time.Duration
	log            *logger.Logger
	newID          func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithHTTPClient sets the client used for chunk requests.
func WithHTTPClient(c *http.Client) Option {
	return func(co *Coordinator) { co.client = c }
}

// WithChunkSize sets the raw (pre-base64) size of each chunk.
func WithChunkSize(n int) Option {
	return func(co *Coordinator) {
		if n > 0 {
			co.chunkSize = n
		}
	}
}

// WithRetry sets how many times one chunk is attempted and the first backoff
// interval. maxAttempts of 1 disables retries.
func WithRetry(maxAttempts int, initial time.Duration) Option {
	return func(co *Coordinator) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		co.maxAttempts = uint(maxAttempts)
		co.initialBackoff = initial
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(co *Coordinator) { co.log = l }
}

// NewCoordinator creates a coordinator posting to endpoint.
func NewCoordinator(endpoint string, opts ...Option) *Coordinator {
	c := &Coordinator{
		endpoint:       endpoint,
		client:         &http.Client{Timeout: 60 * time.Second},
		chunkSize:      config.DefaultChunkSize,
		maxAttempts:    1,
		initialBackoff: 500 * time.Millisecond,
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.Or(c.log).With("component", "upload-coordinator")
	return c
}

// NewCoordinatorFromConfig builds a coordinator from the Upload config section.
func NewCoordinatorFromConfig(cfg config.UploadConfig, log *logger.Logger) *Coordinator {
	return NewCoordinator(cfg.ReassemblyURL,
		WithChunkSize(cfg.ChunkSizeBytes),
		WithRetry(cfg.MaxAttempts, time.Duration(cfg.InitialBackoffMillis)*time.Millisecond),
		WithLogger(log),
	)
}

// TotalChunks returns ceil(size / chunkSize).
func TotalChunks(size, chunkSize int) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return (size + chunkSize - 1) / chunkSize
}

// ChunkBounds returns the [start, end) byte range of chunk i.
func ChunkBounds(i, size, chunkSize int) (int, int) {
	start := i * chunkSize
	end := start + chunkSize
	if end > size {
		end = size
	}
	return start, end
}

// Upload sends payload as sequential chunks under one fresh uploadId. Chunk
// i+1 is only sent once chunk i has been accepted. The returned session is
// Complete with a blobUrl, or Failed alongside a *ChunkError. onProgress may
// be nil.
func (c *Coordinator) Upload(ctx context.Context, filename string, payload []byte, onProgress func(Progress)) (*models.UploadSession, error) {
	now := time.Now()
	sess := &models.UploadSession{
		UploadID:    c.newID(),
		Filename:    filename,
		TotalChunks: TotalChunks(len(payload), c.chunkSize),
		State:       models.UploadIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if sess.TotalChunks == 0 {
		return c.failed(sess, &ChunkError{Part: 0, Total: 0, Err: ErrEmptyPayload})
	}

	log := c.log.With("uploadId", sess.UploadID)
	log.Info("upload starting", "filename", filename, "bytes", len(payload), "totalChunks", sess.TotalChunks)
	sess.State = models.UploadUploading

	var sent int64
	for i := 0; i < sess.TotalChunks; i++ {
		if err := ctx.Err(); err != nil {
			return c.failed(sess, &ChunkError{Part: i + 1, Total: sess.TotalChunks, Err: err})
		}

		start, end := ChunkBounds(i, len(payload), c.chunkSize)
		req := models.ChunkRequest{
			UploadID:    sess.UploadID,
			ChunkIndex:  i,
			TotalChunks: sess.TotalChunks,
			Data:        EncodeChunk(payload[start:end]),
			Filename:    filename,
		}

		resp, err := c.sendWithRetry(ctx, req)
		if err != nil {
			return c.failed(sess, &ChunkError{Part: i + 1, Total: sess.TotalChunks, Err: err})
		}

		last := i == sess.TotalChunks-1
		if last {
			if resp.Status != models.ChunkStatusComplete || resp.BlobURL == "" {
				return c.failed(sess, &ChunkError{
					Part:  i + 1,
					Total: sess.TotalChunks,
					Err:   remote.Protocolf("final chunk answered status %q without blobUrl", resp.Status),
				})
			}
			sess.BlobURL = resp.BlobURL
		}

		sent += int64(end - start)
		sess.Received = i + 1
		sess.UpdatedAt = time.Now()
		progress := Progress{Part: i + 1, Total: sess.TotalChunks, Bytes: sent}
		log.Debug("chunk accepted", "progress", progress.String(), "status", resp.Status)
		if onProgress != nil {
			onProgress(progress)
		}
	}

	sess.State = models.UploadComplete
	log.Info("upload complete", "blobUrl", sess.BlobURL)
	return sess, nil
}

func (c *Coordinator) failed(sess *models.UploadSession, err *ChunkError) (*models.UploadSession, error) {
	sess.State = models.UploadFailed
	sess.Error = err.Error()
	sess.UpdatedAt = time.Now()
	c.log.Warn("upload failed", "uploadId", sess.UploadID, "error", err)
	return sess, err
}

func (c *Coordinator) sendWithRetry(ctx context.Context, req models.ChunkRequest) (*models.ChunkResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff

	op := func() (*models.ChunkResponse, error) {
		resp, err := c.send(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || !remote.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn("chunk attempt failed, retrying", "uploadId", req.UploadID, "chunk", req.ChunkIndex, "wait", wait, "error", err)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxAttempts),
		backoff.WithNotify(notify),
	)
}

func (c *Coordinator) send(ctx context.Context, req models.ChunkRequest) (*models.ChunkResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding chunk: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, remote.Transport(err)
	}

	var resp models.ChunkResponse
	if err := remote.Decode(httpResp, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
