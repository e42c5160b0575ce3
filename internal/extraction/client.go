// Package extraction hands a reassembled planset to the external extraction
// service and parses the parts list it returns.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/config"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/metrics"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/remote"
)

var (
	// ErrNotConfigured is returned when no extraction URL is set.
	ErrNotConfigured = errors.New("extraction service not configured")
	// ErrMissingBlobURL is returned when Extract is called without a document.
	ErrMissingBlobURL = errors.New("blobUrl is required")
)

// Request is the body posted to the extraction service.
type Request struct {
	BlobURL string `json:"blobUrl"`
}

// Client talks to the extraction service.
type Client struct {
	url  string
	http *http.Client
	log  *logger.Logger
}

// NewClient creates a client from the Extraction config section.
func NewClient(cfg config.RemoteServiceConfig, log *logger.Logger) *Client {
	return &Client{
		url:  strings.TrimSpace(cfg.URL),
		http: &http.Client{Timeout: cfg.Timeout()},
		log:  logger.Or(log).With("component", "extraction"),
	}
}

// Configured reports whether a service URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Extract asks the service to read the document at blobURL and returns the
// parts list with fresh item ids. A malformed list is reported as
// bom.ErrInvalidPartsList.
func (c *Client) Extract(ctx context.Context, blobURL string) (*models.BomData, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(blobURL) == "" {
		return nil, ErrMissingBlobURL
	}

	data, err := c.extract(ctx, blobURL)
	metrics.ObserveRemote("extraction", err)
	if err != nil {
		c.log.Warn("extraction failed", "blobUrl", blobURL, "error", err)
		return nil, err
	}

	c.log.Info("extraction complete", "blobUrl", blobURL, "items", len(data.Items))
	return data, nil
}

func (c *Client) extract(ctx context.Context, blobURL string) (*models.BomData, error) {
	body, err := json.Marshal(Request{BlobURL: blobURL})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, remote.Transport(err)
	}

	var raw json.RawMessage
	if err := remote.Decode(resp, &raw); err != nil {
		return nil, err
	}
	return bom.ParseBomData(unwrap(raw))
}

// unwrap accepts both a bare parts list and one nested under "bomData".
func unwrap(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		BomData json.RawMessage `json:"bomData"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.BomData) > 0 {
		return envelope.BomData
	}
	return raw
}
