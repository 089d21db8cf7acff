package controllers

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"tracer/internal/interchange"
	"tracer/internal/providers"
	"tracer/internal/services"
	"tracer/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// ErrBadRequest marks input the handlers could not decode.
var ErrBadRequest = errors.New("bad request")

// ErrValidation marks input rejected by the edit layer.
var ErrValidation = errors.New("validation failed")

type okResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrSeriesNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTypeMismatch),
		errors.Is(err, services.ErrInvalidType),
		errors.Is(err, services.ErrSnapshotVersion),
		errors.Is(err, storage.ErrSeriesExists),
		errors.Is(err, storage.ErrSchemaTooNew),
		errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, interchange.ErrMalformedRow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, okResponse{Status: "ok", Data: data})
}

// writeError logs the failure under op and reports it in the body.
func writeError(w http.ResponseWriter, logger providers.Logger, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf(providers.TypeStore, "%s failed: %s", op, err)
	} else {
		logger.Warnf(providers.TypeStore, "%s rejected: %s", op, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
