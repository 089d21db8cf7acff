package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tracer/internal/interchange"
	"tracer/internal/models"
	"tracer/internal/providers"
	"tracer/internal/services"
)

const maxImportBodySize = 32 << 20 // 32 MB

// ApiController is the write surface plus the raw record reads.
type ApiController struct {
	logger  providers.Logger
	store   services.DataStoreInterface
	metrics providers.MetricsProviderInterface
}

func NewApiController(logger providers.Logger, store services.DataStoreInterface, metrics providers.MetricsProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		store:   store,
		metrics: metrics,
	}
}

type idRequest struct {
	ID int64 `json:"id"`
}

// dataPointAddRequest keeps Value as a pointer so a missing value is told
// apart from numeric zero.
type dataPointAddRequest struct {
	Series    string        `json:"series"`
	Value     *models.Value `json:"value"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

type dataPointUpdateRequest struct {
	ID int64 `json:"id"`
	models.DataPointPatch
}

type seriesUpdateRequest struct {
	ID int64 `json:"id"`
	models.SeriesPatch
}

type importResponse struct {
	Imported int `json:"imported"`
}

type generateRequest struct {
	Preset    string  `json:"preset"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Frequency float64 `json:"frequency"`
}

func (ac *ApiController) fail(w http.ResponseWriter, op string, err error) {
	ac.metrics.IncStoreFailures(op)
	writeError(w, ac.logger, op, err)
}

func (ac *ApiController) GetDataPoints(w http.ResponseWriter, r *http.Request) {
	if names := r.URL.Query()["series"]; len(names) > 0 {
		writeJSON(w, http.StatusOK, ac.store.DataPointsBySeries(names))
		return
	}
	writeJSON(w, http.StatusOK, ac.store.DataPoints())
}

func (ac *ApiController) AddDataPoint(w http.ResponseWriter, r *http.Request) {
	var in dataPointAddRequest
	if err := decodeBody(w, r, &in); err != nil {
		ac.fail(w, "add datapoint", err)
		return
	}
	in.Series = strings.TrimSpace(in.Series)
	if in.Series == "" {
		ac.fail(w, "add datapoint", fmt.Errorf("%w: series is required", ErrValidation))
		return
	}
	if in.Value == nil {
		ac.fail(w, "add datapoint", fmt.Errorf("%w: value is required", ErrValidation))
		return
	}
	dp, err := ac.store.AddDataPoint(r.Context(), models.NewDataPoint{
		Series:    in.Series,
		Value:     *in.Value,
		Timestamp: in.Timestamp,
	})
	if err != nil {
		ac.fail(w, "add datapoint", err)
		return
	}
	writeOK(w, http.StatusCreated, dp)
}

// UpdateDataPoint applies a partial update. An unknown id is not an error.
func (ac *ApiController) UpdateDataPoint(w http.ResponseWriter, r *http.Request) {
	var in dataPointUpdateRequest
	if err := decodeBody(w, r, &in); err != nil {
		ac.fail(w, "update datapoint", err)
		return
	}
	if in.Series != nil {
		trimmed := strings.TrimSpace(*in.Series)
		if trimmed == "" {
			ac.fail(w, "update datapoint", fmt.Errorf("%w: series must not be empty", ErrValidation))
			return
		}
		in.Series = &trimmed
	}
	dp, found, err := ac.store.UpdateDataPoint(r.Context(), in.ID, in.DataPointPatch)
	if err != nil {
		ac.fail(w, "update datapoint", err)
		return
	}
	if !found {
		writeOK(w, http.StatusOK, nil)
		return
	}
	writeOK(w, http.StatusOK, dp)
}

func (ac *ApiController) DeleteDataPoint(w http.ResponseWriter, r *http.Request) {
	var in idRequest
	if err := decodeBody(w, r, &in); err != nil {
		ac.fail(w, "delete datapoint", err)
		return
	}
	if err := ac.store.DeleteDataPoint(r.Context(), in.ID); err != nil {
		ac.fail(w, "delete datapoint", err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (ac *ApiController) GetSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.store.Series())
}

func (ac *ApiController) AddSeries(w http.ResponseWriter, r *http.Request) {
	var in models.NewSeries
	if err := decodeBody(w, r, &in); err != nil {
		ac.fail(w, "add series", err)
		return
	}
	if err := validateSeriesName(in.Name, ac.store.Series(), 0); err != nil {
		ac.fail(w, "add series", err)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	created, err := ac.store.AddSeries(r.Context(), in)
	if err != nil {
		ac.fail(w, "add series", err)
		return
	}
	writeOK(w, http.StatusCreated, created)
}

func (ac *ApiController) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	var in seriesUpdateRequest
	if err := decodeBody(w, r, &in); err != nil {
		ac.fail(w, "update series", err)
		return
	}
	if in.Name != nil {
		if err := validateSeriesName(*in.Name, ac.store.Series(), in.ID); err != nil {
			ac.fail(w, "update series", err)
			return
		}
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	updated, err := ac.store.UpdateSeries(r.Context(), in.ID, in.SeriesPatch)
	if err != nil {
		ac.fail(w, "update series", err)
		return
	}
	writeOK(w, http.StatusOK, updated)
}

// DeleteSeries removes the series and every point recorded under it.
func (ac *ApiController) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	var in idRequest
	if err := decodeBody(w, r, &in); err != nil {
		ac.fail(w, "delete series", err)
		return
	}
	if err := ac.store.DeleteSeries(r.Context(), in.ID); err != nil {
		ac.fail(w, "delete series", err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (ac *ApiController) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := interchange.Export(&buf, ac.store.DataPoints()); err != nil {
		ac.fail(w, "export", err)
		return
	}
	name := fmt.Sprintf("tracer-export-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Import reads a CSV body. Nothing is stored when any row is malformed.
func (ac *ApiController) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
	batch, err := interchange.Import(r.Body)
	if err != nil {
		ac.fail(w, "import", err)
		return
	}
	stored, err := ac.store.ImportDataPoints(r.Context(), batch)
	if err != nil {
		ac.fail(w, "import", err)
		return
	}
	ac.logger.Infof(providers.TypeStore, "Imported %d data points", len(stored))
	writeOK(w, http.StatusOK, importResponse{Imported: len(stored)})
}

// Generate fills a preset series with sample data.
func (ac *ApiController) Generate(w http.ResponseWriter, r *http.Request) {
	var in generateRequest
	if err := decodeBody(w, r, &in); err != nil {
		ac.fail(w, "generate", err)
		return
	}
	req := interchange.GenerateRequest{Preset: in.Preset, Frequency: in.Frequency}
	for _, bound := range []struct {
		raw string
		dst *time.Time
	}{{in.From, &req.From}, {in.To, &req.To}} {
		if bound.raw == "" {
			continue
		}
		ms, err := interchange.ParseTimestamp(bound.raw)
		if err != nil {
			ac.fail(w, "generate", fmt.Errorf("%w: %v", ErrBadRequest, err))
			return
		}
		*bound.dst = time.UnixMilli(ms)
	}

	batch, err := interchange.Generate(req, nil)
	if err != nil {
		ac.fail(w, "generate", fmt.Errorf("%w: %v", ErrValidation, err))
		return
	}
	stored, err := ac.store.ImportDataPoints(r.Context(), batch)
	if err != nil {
		ac.fail(w, "generate", err)
		return
	}
	writeOK(w, http.StatusOK, importResponse{Imported: len(stored)})
}

// Reset destroys all stored data.
func (ac *ApiController) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ac.store.DeleteDatabase(r.Context()); err != nil {
		ac.fail(w, "reset", err)
		return
	}
	ac.logger.Warnf(providers.TypeStore, "Database reset")
	writeOK(w, http.StatusOK, nil)
}
