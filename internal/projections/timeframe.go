// Package projections holds the pure view computations over cached data
// points: time and series filters, chart bucketing, calendar and timeline
// grouping. Nothing here mutates its input.
package projections

import (
	"fmt"
	"strings"
	"time"

	"tracer/internal/models"
)

type TimeFrame string

const (
	AllTime   TimeFrame = "All Time"
	PastWeek  TimeFrame = "Past Week"
	PastMonth TimeFrame = "Past Month"
	PastYear  TimeFrame = "Past Year"
	YTD       TimeFrame = "YTD"
	Custom    TimeFrame = "Custom"
)

var timeFrames = []TimeFrame{AllTime, PastWeek, PastMonth, PastYear, YTD, Custom}

// ParseTimeFrame matches s case-insensitively against the known frames.
// An empty string is All Time; "Custom..." is accepted as Custom.
func ParseTimeFrame(s string) (TimeFrame, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllTime, nil
	}
	s = strings.TrimSuffix(s, "...")
	for _, tf := range timeFrames {
		if strings.EqualFold(s, string(tf)) {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unknown time frame %q", s)
}

// Range is the pair of bounds of a Custom frame. A zero bound is unset.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Complete() bool {
	return !r.From.IsZero() && !r.To.IsZero()
}

// Since returns the exclusive lower bound of a relative frame, computed in
// now's location. ok is false for All Time and Custom.
func Since(tf TimeFrame, now time.Time) (time.Time, bool) {
	switch tf {
	case PastWeek:
		return now.AddDate(0, 0, -7), true
	case PastMonth:
		return SubMonths(now, 1), true
	case PastYear:
		return SubMonths(now, 12), true
	case YTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// SubMonths moves t back n calendar months, clamping the day to the last
// day of the target month (Mar 31 minus one month is Feb 28 or 29).
func SubMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := daysIn(first.Year(), first.Month(), t.Location())
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// FilterByTimeFrame keeps the points strictly after the frame's lower bound.
// Custom keeps points strictly between From and To and returns the input
// unfiltered unless both bounds are set.
func FilterByTimeFrame(points []models.DataPoint, tf TimeFrame, custom Range, now time.Time) []models.DataPoint {
	switch tf {
	case Custom:
		if !custom.Complete() {
			return clonePoints(points)
		}
		from, to := custom.From.UnixMilli(), custom.To.UnixMilli()
		return filterPoints(points, func(p models.DataPoint) bool {
			return p.Timestamp > from && p.Timestamp < to
		})
	default:
		since, ok := Since(tf, now)
		if !ok {
			return clonePoints(points)
		}
		bound := since.UnixMilli()
		return filterPoints(points, func(p models.DataPoint) bool {
			return p.Timestamp > bound
		})
	}
}

// FilterBySeries keeps the points of the selected series; an empty
// selection keeps everything.
func FilterBySeries(points []models.DataPoint, selected []string) []models.DataPoint {
	if len(selected) == 0 {
		return clonePoints(points)
	}
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		set[s] = struct{}{}
	}
	return filterPoints(points, func(p models.DataPoint) bool {
		_, ok := set[p.Series]
		return ok
	})
}

// Filter is the combined view selection applied before bucketing.
type Filter struct {
	TimeFrame TimeFrame
	Custom    Range
	Series    []string
}

func (f Filter) Apply(points []models.DataPoint, now time.Time) []models.DataPoint {
	return FilterByTimeFrame(FilterBySeries(points, f.Series), f.TimeFrame, f.Custom, now)
}

func filterPoints(points []models.DataPoint, keep func(models.DataPoint) bool) []models.DataPoint {
	out := make([]models.DataPoint, 0, len(points))
	for _, p := range points {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func clonePoints(points []models.DataPoint) []models.DataPoint {
	out := make([]models.DataPoint, len(points))
	copy(out, points)
	return out
}
