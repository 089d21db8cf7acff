package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracer/internal/models"
	"tracer/internal/structures"
	"tracer/internal/testutil"
)

var viewNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newViewController(t *testing.T, env *testEnv, cache *testutil.MockCache) *ViewController {
	t.Helper()
	conf := &structures.Config{Views: structures.ViewsConfig{Timezone: "UTC"}}
	vc, err := NewViewController(conf, env.logger, env.store, cache)
	require.NoError(t, err)
	vc.now = func() time.Time { return viewNow }
	return vc
}

func seedViews(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	at := func(d, h int) int64 { return time.Date(2024, 6, d, h, 0, 0, 0, time.UTC).UnixMilli() }
	for _, in := range []models.NewDataPoint{
		{Series: "Weight", Value: models.NumberValue(70.1), Timestamp: at(14, 8)},
		{Series: "Weight", Value: models.NumberValue(0.2), Timestamp: at(14, 20)},
		{Series: "Weight", Value: models.NumberValue(71), Timestamp: at(15, 8)},
		{Series: "Mood", Value: models.TextValue("Happy"), Timestamp: at(14, 9)},
		{Series: "Mood", Value: models.TextValue("Happy"), Timestamp: at(14, 10)},
		{Series: "Mood", Value: models.TextValue("Sad"), Timestamp: at(15, 9)},
		{Series: "Weight", Value: models.NumberValue(60), Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
	} {
		_, err := env.store.AddDataPoint(ctx, in)
		require.NoError(t, err)
	}
}

func TestNewViewController_BadTimezone(t *testing.T) {
	env := newTestEnv(t)
	conf := &structures.Config{Views: structures.ViewsConfig{Timezone: "Mars/Olympus"}}
	_, err := NewViewController(conf, env.logger, env.store, testutil.NewMockCache())
	assert.Error(t, err)
}

func TestChart_DailyBuckets(t *testing.T) {
	env := newTestEnv(t)
	seedViews(t, env)
	vc := newViewController(t, env, testutil.NewMockCache())

	rr := call(vc.Chart, http.MethodGet, "/views/chart?interval=Day&timeframe=Past+Month", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp chartResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Day", string(resp.Interval))
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "2024-06-14", resp.Rows[0].Key)
	assert.Equal(t, 70.3, resp.Rows[0].Values["Weight"])
	assert.Equal(t, 2.0, resp.Rows[0].Values["Mood::Happy"])
	assert.Equal(t, 71.0, resp.Rows[1].Values["Weight"])
	assert.Equal(t, 1.0, resp.Rows[1].Values["Mood::Sad"])
}

func TestChart_SeriesAndCustomRange(t *testing.T) {
	env := newTestEnv(t)
	seedViews(t, env)
	vc := newViewController(t, env, testutil.NewMockCache())

	rr := call(vc.Chart, http.MethodGet, "/views/chart?interval=Year&series=Weight", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp chartResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "2023", resp.Rows[0].Key)
	assert.Equal(t, 60.0, resp.Rows[0].Values["Weight"])

	rr = call(vc.Chart, http.MethodGet, "/views/chart?interval=Day&timeframe=Custom&from=2024-06-14T08:00:00Z&to=2024-06-15T08:00:00Z&series=Weight", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 0.2, resp.Rows[0].Values["Weight"], "both custom bounds are exclusive")
}

func TestChart_BadQuery(t *testing.T) {
	env := newTestEnv(t)
	vc := newViewController(t, env, testutil.NewMockCache())

	for _, target := range []string{
		"/views/chart?interval=Fortnight",
		"/views/chart?timeframe=Last+Decade",
		"/views/chart?timeframe=Custom&from=tomorrow",
	} {
		rr := call(vc.Chart, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestChart_CachedPerRevision(t *testing.T) {
	env := newTestEnv(t)
	seedViews(t, env)
	cache := testutil.NewMockCache()
	vc := newViewController(t, env, cache)

	first := call(vc.Chart, http.MethodGet, "/views/chart?interval=Month", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, cache.Len())

	again := call(vc.Chart, http.MethodGet, "/views/chart?interval=Month", "")
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Equal(t, 1, cache.Len())

	_, err := env.store.AddDataPoint(context.Background(), models.NewDataPoint{Series: "Weight", Value: models.NumberValue(1), Timestamp: viewNow.UnixMilli()})
	require.NoError(t, err)

	after := call(vc.Chart, http.MethodGet, "/views/chart?interval=Month", "")
	assert.NotEqual(t, first.Body.String(), after.Body.String())
	assert.Equal(t, 2, cache.Len())
}

func TestChart_RelativeFrameFollowsClock(t *testing.T) {
	env := newTestEnv(t)
	seedViews(t, env)
	cache := testutil.NewMockCache()
	vc := newViewController(t, env, cache)
	target := "/views/chart?interval=Day&timeframe=Past+Week"

	first := call(vc.Chart, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, first.Code)

	vc.now = func() time.Time { return viewNow.Add(30 * time.Second) }
	call(vc.Chart, http.MethodGet, target, "")
	assert.Equal(t, 1, cache.Len())

	vc.now = func() time.Time { return viewNow.AddDate(0, 0, 8) }
	later := call(vc.Chart, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, later.Code)
	assert.Equal(t, 2, cache.Len())
	assert.NotEqual(t, first.Body.String(), later.Body.String())

	call(vc.Chart, http.MethodGet, "/views/chart?interval=Day", "")
	vc.now = func() time.Time { return viewNow }
	call(vc.Chart, http.MethodGet, "/views/chart?interval=Day", "")
	assert.Equal(t, 3, cache.Len())
}

func TestCalendarAndTimeline(t *testing.T) {
	env := newTestEnv(t)
	seedViews(t, env)
	vc := newViewController(t, env, testutil.NewMockCache())

	rr := call(vc.Calendar, http.MethodGet, "/views/calendar?series=Mood", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var days []struct {
		Date   string             `json:"date"`
		Points []models.DataPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &days))
	require.Len(t, days, 2)
	assert.Equal(t, "2024-06-14", days[0].Date)
	assert.Len(t, days[0].Points, 2)

	rr = call(vc.Timeline, http.MethodGet, "/views/timeline", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &days))
	require.Len(t, days, 3)
	assert.Equal(t, "2024-06-15", days[0].Date)
	assert.Equal(t, "2023-01-01", days[2].Date)
}

func TestUniqueValues(t *testing.T) {
	env := newTestEnv(t)
	seedViews(t, env)
	vc := newViewController(t, env, testutil.NewMockCache())

	rr := call(vc.UniqueValues, http.MethodGet, "/views/unique-values", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]struct {
		Type   models.SeriesType `json:"type"`
		Values []models.Value    `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.SeriesText, resp["Mood"].Type)
	require.Len(t, resp["Mood"].Values, 2)
	assert.True(t, resp["Mood"].Values[0].Equal(models.TextValue("Happy")))
	assert.Equal(t, models.SeriesNumeric, resp["Weight"].Type)
	assert.Len(t, resp["Weight"].Values, 4)
}
