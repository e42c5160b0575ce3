package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/snapshot"
)

func saveBody(qty string) string {
	return `{
		"dealId": "deal-1",
		"dealName": "Smith Residence",
		"sourceFile": "planset.pdf",
		"bomData": {
			"project": {"customer": "Smith"},
			"items": [
				{"id": 99, "category": "MODULE", "brand": "Qcell", "model": "Q.PEAK", "description": "", "qty": ` + qty + `}
			]
		}
	}`
}

func TestSnapshotHandlers(t *testing.T) {
	env := newTestEnv(t)

	// 1. Save two versions
	rec := env.do(http.MethodPost, "/api/bom/snapshots", saveBody("20"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v1 models.BomSnapshot
	decode(t, rec, &v1)
	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, "planset.pdf", *v1.SourceFile)
	assert.Equal(t, 1, v1.BomData.Items[0].ID)

	rec = env.do(http.MethodPost, "/api/bom/snapshots", saveBody("24"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// 2. List newest first
	rec = env.do(http.MethodGet, "/api/bom/snapshots/deal-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.SnapshotSummary
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Version)
	assert.Equal(t, 1, list[0].ItemCount)

	// 3. Latest and a specific version
	rec = env.do(http.MethodGet, "/api/bom/snapshots/deal-1/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest models.BomSnapshot
	decode(t, rec, &latest)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "24", latest.BomData.Items[0].Qty.String())

	rec = env.do(http.MethodGet, "/api/bom/snapshots/deal-1/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var first models.BomSnapshot
	decode(t, rec, &first)
	assert.Equal(t, "20", first.BomData.Items[0].Qty.String())

	// 4. Diff defaults to latest against the one before
	rec = env.do(http.MethodGet, "/api/bom/snapshots/deal-1/diff", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d snapshot.VersionDiff
	decode(t, rec, &d)
	assert.Equal(t, 1, d.From)
	assert.Equal(t, 2, d.To)
	require.Len(t, d.Rows, 1)
	assert.Equal(t, models.DiffChanged, d.Rows[0].Status)
	assert.Equal(t, "20", d.Rows[0].QtyA.String())
	assert.Equal(t, "24", d.Rows[0].QtyB.String())

	// 5. Explicit versions, reversed
	rec = env.do(http.MethodGet, "/api/bom/snapshots/deal-1/diff?from=2&to=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &d)
	assert.Equal(t, "24", d.Rows[0].QtyA.String())
}

func TestSnapshotHandlers_Errors(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/bom/snapshots", saveBody("20"))
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing deal", http.MethodGet, "/api/bom/snapshots/nobody/latest", "", http.StatusNotFound, "NOT_FOUND"},
		{"missing version", http.MethodGet, "/api/bom/snapshots/deal-1/7", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad version", http.MethodGet, "/api/bom/snapshots/deal-1/abc", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero version", http.MethodGet, "/api/bom/snapshots/deal-1/0", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"single version diff", http.MethodGet, "/api/bom/snapshots/deal-1/diff", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"diff missing version", http.MethodGet, "/api/bom/snapshots/deal-1/diff?from=1&to=3", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad from", http.MethodGet, "/api/bom/snapshots/deal-1/diff?from=x&to=1", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"save without deal", http.MethodPost, "/api/bom/snapshots", `{"bomData": {"items": []}}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"save without bom", http.MethodPost, "/api/bom/snapshots", `{"dealId": "deal-1"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"save without items", http.MethodPost, "/api/bom/snapshots", `{"dealId": "deal-1", "bomData": {"project": {}}}`, http.StatusBadRequest, "INVALID_PARTS_LIST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.body)
			assertAPIError(t, rec, tt.wantStatus, tt.wantCode)
		})
	}
}
