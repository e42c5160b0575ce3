// Package metrics provides Prometheus collectors for the BOM engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

var (
	// Chunk reassembly
	ChunksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_upload_chunks_received_total",
			Help: "Chunks accepted by the reassembly endpoint",
		},
		[]string{"status"},
	)

	UploadsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_uploads_completed_total",
			Help: "Chunked uploads reassembled into one artifact",
		},
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_upload_bytes_total",
			Help: "Decoded bytes received across all chunks",
		},
	)

	StaleUploadsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_uploads_stale_removed_total",
			Help: "Partial uploads swept after going idle",
		},
	)

	// Reconciliation and diff
	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bom_reconcile_duration_seconds",
			Help:    "Time spent reconciling one parts list against catalog rows",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	ReconcileItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_reconcile_items_total",
			Help: "BOM items reconciled",
		},
	)

	DiffRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_diff_rows_total",
			Help: "Diff rows produced, by status",
		},
		[]string{"status"},
	)

	// Snapshots
	SnapshotsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_snapshots_saved_total",
			Help: "Snapshots persisted",
		},
	)

	// Upstream calls (catalog comparison, extraction)
	RemoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_remote_calls_total",
			Help: "Calls to external services, by outcome",
		},
		[]string{"service", "outcome"},
	)
)

// ObserveReconcile records one reconciliation run.
func ObserveReconcile(items int, elapsed time.Duration) {
	ReconcileDuration.Observe(elapsed.Seconds())
	ReconcileItems.Add(float64(items))
}

// ObserveDiff records diff row counts by status.
func ObserveDiff(counts map[models.DiffStatus]int) {
	for status, n := range counts {
		DiffRows.WithLabelValues(string(status)).Add(float64(n))
	}
}

// ObserveRemote records the outcome of a call to an external service.
func ObserveRemote(service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RemoteCalls.WithLabelValues(service, outcome).Inc()
}
