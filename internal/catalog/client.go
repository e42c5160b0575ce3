// Package catalog fetches cross-source product comparisons from the external
// catalog comparison service.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/config"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/metrics"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/remote"
)

// ErrNotConfigured is returned when no comparison URL is set.
var ErrNotConfigured = errors.New("catalog comparison service not configured")

// Client talks to the comparison service.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a client from the Catalog config section.
func NewClient(cfg config.RemoteServiceConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSpace(cfg.URL),
		http:    &http.Client{Timeout: cfg.Timeout()},
		log:     logger.Or(log).With("component", "catalog"),
	}
}

// Configured reports whether a service URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Comparison fetches the comparison rows and per-source health for a deal.
func (c *Client) Comparison(ctx context.Context, dealID string) (*models.Comparison, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog url: %w", err)
	}
	q := u.Query()
	q.Set("dealId", dealID)
	u.RawQuery = q.Encode()

	cmp, err := c.fetch(ctx, u.String())
	metrics.ObserveRemote("catalog", err)
	if err != nil {
		c.log.Warn("comparison fetch failed", "dealId", dealID, "error", err)
		return nil, err
	}

	c.log.Debug("comparison fetched", "dealId", dealID, "rows", len(cmp.Rows), "sources", len(cmp.Health))
	return cmp, nil
}

func (c *Client) fetch(ctx context.Context, target string) (*models.Comparison, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, remote.Transport(err)
	}

	var cmp models.Comparison
	if err := remote.Decode(resp, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}
