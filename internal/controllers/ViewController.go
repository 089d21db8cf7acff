package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"tracer/internal/interchange"
	"tracer/internal/models"
	"tracer/internal/projections"
	"tracer/internal/providers"
	"tracer/internal/services"
	"tracer/internal/structures"
)

// ViewController serves the derived projections. Responses are cached under
// the store revision, so any write makes earlier entries unreachable.
type ViewController struct {
	logger providers.Logger
	store  services.DataStoreInterface
	cache  providers.CacheProviderInterface
	loc    *time.Location
	now    func() time.Time
}

func NewViewController(conf *structures.Config, logger providers.Logger, store services.DataStoreInterface, cache providers.CacheProviderInterface) (*ViewController, error) {
	loc := time.Local
	if conf.Views.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(conf.Views.Timezone); err != nil {
			return nil, fmt.Errorf("views timezone: %w", err)
		}
	}
	return &ViewController{
		logger: logger,
		store:  store,
		cache:  cache,
		loc:    loc,
		now:    time.Now,
	}, nil
}

type chartResponse struct {
	Interval  projections.Interval    `json:"interval"`
	TimeFrame projections.TimeFrame   `json:"timeframe"`
	Rows      []projections.BucketRow `json:"rows"`
}

type uniqueValuesEntry struct {
	Type   models.SeriesType `json:"type"`
	Values []models.Value    `json:"values"`
}

// cacheKey adds the current minute for frames measured back from now, so a
// cached Past Week or YTD answer moves with the clock.
func (vc *ViewController) cacheKey(view string, query url.Values) string {
	key := fmt.Sprintf("%s:%d:%s", view, vc.store.Revision(), query.Encode())
	if tf, err := projections.ParseTimeFrame(query.Get("timeframe")); err == nil {
		if _, relative := projections.Since(tf, vc.now()); relative {
			key += fmt.Sprintf(":%d", vc.now().Truncate(time.Minute).Unix())
		}
	}
	return key
}

func (vc *ViewController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := vc.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		writeError(w, vc.logger, "view", err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	vc.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// parseFilter reads timeframe, from, to and series from the query.
func (vc *ViewController) parseFilter(query url.Values) (projections.Filter, error) {
	tf, err := projections.ParseTimeFrame(query.Get("timeframe"))
	if err != nil {
		return projections.Filter{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	f := projections.Filter{TimeFrame: tf, Series: query["series"]}
	for _, bound := range []struct {
		key string
		dst *time.Time
	}{{"from", &f.Custom.From}, {"to", &f.Custom.To}} {
		raw := query.Get(bound.key)
		if raw == "" {
			continue
		}
		ms, err := interchange.ParseTimestamp(raw)
		if err != nil {
			return projections.Filter{}, fmt.Errorf("%w: %s: %v", ErrBadRequest, bound.key, err)
		}
		*bound.dst = time.UnixMilli(ms).In(vc.loc)
	}
	return f, nil
}

func (vc *ViewController) filtered(query url.Values) ([]models.DataPoint, error) {
	f, err := vc.parseFilter(query)
	if err != nil {
		return nil, err
	}
	return f.Apply(vc.store.DataPoints(), vc.now().In(vc.loc)), nil
}

func (vc *ViewController) Chart(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	vc.serveFromCacheOrCompute(w, vc.cacheKey("chart", query), func() (any, error) {
		iv, err := projections.ParseInterval(query.Get("interval"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		f, err := vc.parseFilter(query)
		if err != nil {
			return nil, err
		}
		points := f.Apply(vc.store.DataPoints(), vc.now().In(vc.loc))
		return chartResponse{
			Interval:  iv,
			TimeFrame: f.TimeFrame,
			Rows:      projections.BucketByInterval(points, iv, vc.loc),
		}, nil
	})
}

func (vc *ViewController) Calendar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	vc.serveFromCacheOrCompute(w, vc.cacheKey("calendar", query), func() (any, error) {
		points, err := vc.filtered(query)
		if err != nil {
			return nil, err
		}
		return projections.GroupByDay(points, vc.loc), nil
	})
}

func (vc *ViewController) Timeline(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	vc.serveFromCacheOrCompute(w, vc.cacheKey("timeline", query), func() (any, error) {
		points, err := vc.filtered(query)
		if err != nil {
			return nil, err
		}
		return projections.Timeline(points, vc.loc), nil
	})
}

// UniqueValues lists the distinct values of every series with its effective
// type.
func (vc *ViewController) UniqueValues(w http.ResponseWriter, r *http.Request) {
	vc.serveFromCacheOrCompute(w, vc.cacheKey("unique", nil), func() (any, error) {
		byName := vc.store.SeriesByName()
		out := make(map[string]uniqueValuesEntry)
		for name, values := range vc.store.UniqueValuesBySeries() {
			out[name] = uniqueValuesEntry{
				Type:   projections.InferSeriesType(byName[name], values),
				Values: values,
			}
		}
		return out, nil
	})
}
