package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok " + r.PathValue("id")))
	})
}

func TestRouterProvider_AddsRoutes(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/a", dummyHandler())
	rp.Post("/a", dummyHandler())
	rp.Post("/a/update", dummyHandler())

	routes := rp.GetRoutes()
	require.Len(t, routes, 3)
	assert.Equal(t, "GET /a", routes[0].Pattern())
	assert.Equal(t, "POST /a", routes[1].Pattern())
	assert.Equal(t, "POST /a/update", routes[2].Pattern())
}

func TestRouterProvider_MuxDispatchesByMethod(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/test", dummyHandler())
	rp.Post("/items/{id}", dummyHandler())
	mux := rp.Mux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/items/42", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok 42", rr.Body.String())
}

func TestRouterProvider_WrongMethod(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/test", dummyHandler())

	rr := httptest.NewRecorder()
	rp.Mux().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/test", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouterProvider_UnknownPath(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/test", dummyHandler())

	rr := httptest.NewRecorder()
	rp.Mux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
