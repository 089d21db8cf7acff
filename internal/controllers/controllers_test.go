package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tracer/internal/services"
	"tracer/internal/storage"
	"tracer/internal/testutil"
)

type testEnv struct {
	store   *services.DataStore
	logger  *testutil.MockLogger
	metrics *testutil.MockMetrics
	api     *ApiController
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := services.NewDataStore(db, services.WithRandom(func() float64 { return 0.25 }))
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}
	return &testEnv{
		store:   store,
		logger:  logger,
		metrics: metrics,
		api:     NewApiController(logger, store, metrics),
	}
}

func call(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(method, target, reader))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}
