package projections

import (
	"testing"
	"time"

	"tracer/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	for in, want := range map[string]Interval{"Min": Minute, "minute": Minute, "hour": Hour, "": Day, "Week": Week, "MONTH": Month, "year": Year} {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseInterval("Fortnight")
	assert.Error(t, err)
}

func TestBucketKey(t *testing.T) {
	ts := time.Date(2024, 12, 30, 14, 37, 12, 0, time.UTC)
	assert.Equal(t, "2024-12-30 14:37", BucketKey(ts, Minute))
	assert.Equal(t, "2024-12-30 14:00", BucketKey(ts, Hour))
	assert.Equal(t, "2024-12-30", BucketKey(ts, Day))
	assert.Equal(t, "2025-W01", BucketKey(ts, Week))
	assert.Equal(t, "2024-12", BucketKey(ts, Month))
	assert.Equal(t, "2024", BucketKey(ts, Year))
}

func TestBucketStart_WeekStartsMonday(t *testing.T) {
	sunday := time.Date(2024, 6, 16, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), BucketStart(sunday, Week))
	monday := time.Date(2024, 6, 17, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC), BucketStart(monday, Week))
}

func TestBucketByInterval_NumericSumSameDay(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := []models.DataPoint{
		pointAt(2, "Weight", models.NumberValue(72), day.Add(18*time.Hour)),
		pointAt(1, "Weight", models.NumberValue(70), day.Add(8*time.Hour)),
	}

	rows := BucketByInterval(points, Day, time.UTC)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06-15", rows[0].Key)
	assert.Equal(t, day, rows[0].Start)
	assert.Equal(t, 142.0, rows[0].Values["Weight"])
}

func TestBucketByInterval_TextCounts(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := []models.DataPoint{
		pointAt(1, "Mood", models.TextValue("Happy"), day.Add(time.Hour)),
		pointAt(2, "Mood", models.TextValue("Sad"), day.Add(2*time.Hour)),
	}

	rows := BucketByInterval(points, Day, time.UTC)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]float64{"Mood::Happy": 1, "Mood::Sad": 1}, rows[0].Values)
}

func TestBucketByInterval_OmitsZeroTotals(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := []models.DataPoint{
		pointAt(1, "Balance", models.NumberValue(5), day.Add(time.Hour)),
		pointAt(2, "Balance", models.NumberValue(-5), day.Add(2*time.Hour)),
		pointAt(3, "Steps", models.NumberValue(0), day.Add(3*time.Hour)),
	}

	rows := BucketByInterval(points, Day, time.UTC)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Values)
}

func TestBucketByInterval_AscendingAcrossBuckets(t *testing.T) {
	base := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	points := []models.DataPoint{
		pointAt(1, "A", models.NumberValue(1), base.AddDate(0, 2, 0)),
		pointAt(2, "A", models.NumberValue(2), base),
		pointAt(3, "A", models.NumberValue(3), base.Add(2*time.Hour)),
	}

	rows := BucketByInterval(points, Month, time.UTC)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, []string{rows[0].Key, rows[1].Key, rows[2].Key})
}

func TestBucketByInterval_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2024, 6, 16, 2, 0, 0, 0, time.UTC)
	rows := BucketByInterval([]models.DataPoint{pointAt(1, "A", models.NumberValue(1), ts)}, Day, loc)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06-15", rows[0].Key)
}

func TestBucketByInterval_Conservation(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{0.1, 0.2, 0.3, 12.75, 3, 99.99, 0.01, 42}
	points := make([]models.DataPoint, 0, len(values))
	raw := decimal.Zero
	for i, v := range values {
		points = append(points, pointAt(int64(i+1), "Expenses", models.NumberValue(v), base.Add(time.Duration(i)*37*time.Hour)))
		raw = raw.Add(decimal.NewFromFloat(v))
	}
	points = append(points, pointAt(100, "Mood", models.TextValue("Happy"), base))

	for _, iv := range []Interval{Minute, Hour, Day, Week, Month, Year} {
		rows := BucketByInterval(points, iv, time.UTC)
		assert.True(t, raw.Equal(SeriesTotal(rows, "Expenses")), "interval %s", iv)
	}
}

func TestBucketByInterval_Empty(t *testing.T) {
	assert.Empty(t, BucketByInterval(nil, Day, nil))
}
