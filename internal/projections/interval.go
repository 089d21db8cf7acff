package projections

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tracer/internal/models"
)

type Interval string

const (
	Minute Interval = "Minute"
	Hour   Interval = "Hour"
	Day    Interval = "Day"
	Week   Interval = "Week"
	Month  Interval = "Month"
	Year   Interval = "Year"
)

var intervals = []Interval{Minute, Hour, Day, Week, Month, Year}

// ParseInterval is case-insensitive; "Min" is the picker label for Minute
// and an empty string means Day.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day, nil
	}
	if strings.EqualFold(s, "min") {
		return Minute, nil
	}
	for _, iv := range intervals {
		if strings.EqualFold(s, string(iv)) {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unknown interval %q", s)
}

// BucketStart truncates t to the calendar start of its bucket in t's
// location. Weeks start on ISO Monday.
func BucketStart(t time.Time, iv Interval) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch iv {
	case Minute:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
	case Hour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

func BucketKey(t time.Time, iv Interval) string {
	switch iv {
	case Minute:
		return t.Format("2006-01-02 15:04")
	case Hour:
		return t.Format("2006-01-02 15:00")
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Month:
		return t.Format("2006-01")
	case Year:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

// TextKey names the sub-series that counts one distinct text value.
func TextKey(series, value string) string {
	return series + "::" + value
}

// BucketRow is one chart row. Values holds the numeric total per series and
// the occurrence count per "series::value" text sub-series.
type BucketRow struct {
	Key    string             `json:"date"`
	Start  time.Time          `json:"start"`
	Values map[string]float64 `json:"values"`
}

type bucket struct {
	key    string
	start  time.Time
	sums   map[string]decimal.Decimal
	counts map[string]int64
}

// BucketByInterval aggregates points per calendar bucket in loc. Numeric
// values are summed per series; text values are counted per distinct value.
// Zero numeric totals are left out of the row. Rows come back in ascending
// bucket order.
func BucketByInterval(points []models.DataPoint, iv Interval, loc *time.Location) []BucketRow {
	if loc == nil {
		loc = time.Local
	}
	sorted := clonePoints(points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	buckets := make(map[string]*bucket)
	order := make([]*bucket, 0)
	for _, p := range sorted {
		t := p.Time().In(loc)
		key := BucketKey(t, iv)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				key:    key,
				start:  BucketStart(t, iv),
				sums:   make(map[string]decimal.Decimal),
				counts: make(map[string]int64),
			}
			buckets[key] = b
			order = append(order, b)
		}
		if p.Value.IsNumeric() {
			b.sums[p.Series] = b.sums[p.Series].Add(decimal.NewFromFloat(p.Value.Float()))
		} else {
			b.counts[TextKey(p.Series, p.Value.String())]++
		}
	}

	rows := make([]BucketRow, 0, len(order))
	for _, b := range order {
		row := BucketRow{Key: b.key, Start: b.start, Values: make(map[string]float64, len(b.sums)+len(b.counts))}
		for series, sum := range b.sums {
			if sum.IsZero() {
				continue
			}
			row.Values[series] = sum.InexactFloat64()
		}
		for k, n := range b.counts {
			row.Values[k] = float64(n)
		}
		rows = append(rows, row)
	}
	return rows
}

// SeriesTotal adds up a numeric series across rows.
func SeriesTotal(rows []BucketRow, series string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if v, ok := r.Values[series]; ok {
			total = total.Add(decimal.NewFromFloat(v))
		}
	}
	return total
}
