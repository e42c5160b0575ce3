package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/config"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/snapshot"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/testutil"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/upload"
)

type testEnv struct {
	e         *echo.Echo
	files     *testutil.MockStorage
	uploads   *upload.Manager
	snapshots *snapshot.MemoryStore
	catalog   *testutil.FakeCatalog
	extractor *testutil.FakeExtractor
	rules     *config.MatchRules
}

type envOption func(*testEnv)

func withCatalog(f *testutil.FakeCatalog) envOption {
	return func(env *testEnv) { env.catalog = f }
}

func withExtractor(f *testutil.FakeExtractor) envOption {
	return func(env *testEnv) { env.extractor = f }
}

func withRules(r *config.MatchRules) envOption {
	return func(env *testEnv) { env.rules = r }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	env := &testEnv{
		e:         echo.New(),
		files:     testutil.NewMockStorage(),
		snapshots: snapshot.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(env)
	}
	env.uploads = upload.NewManager(env.files, "", logger.Nop())

	deps := &Dependencies{
		Files:     env.files,
		Uploads:   env.uploads,
		Snapshots: env.snapshots,
		Rules:     env.rules,
		Log:       logger.Nop(),
		Version:   "test",
	}
	// leave the interfaces untyped nil when a fake is not wanted
	if env.catalog != nil {
		deps.Catalog = env.catalog
	}
	if env.extractor != nil {
		deps.Extractor = env.extractor
	}

	SetupMiddleware(env.e)
	RegisterRoutes(env.e, NewHandlers(deps))
	return env
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) APIError {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	var apiErr APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, code, apiErr.Code)
	return apiErr
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, withCatalog(&testutil.FakeCatalog{}))

	rec := env.do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string          `json:"status"`
		Version  string          `json:"version"`
		Services map[string]bool `json:"services"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.True(t, body.Services["catalog"])
	assert.False(t, body.Services["extraction"])
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/api/nope", "")
	assertAPIError(t, rec, http.StatusNotFound, "HTTP_ERROR")
}
