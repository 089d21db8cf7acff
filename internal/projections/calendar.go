package projections

import (
	"sort"
	"time"

	"tracer/internal/models"
)

const dayLayout = "2006-01-02"

// CalendarDay is the set of points recorded on one local day.
type CalendarDay struct {
	Date   string             `json:"date"`
	Points []models.DataPoint `json:"points"`
}

// GroupByDay buckets points by local calendar day, days ascending and points
// within a day in time order.
func GroupByDay(points []models.DataPoint, loc *time.Location) []CalendarDay {
	if loc == nil {
		loc = time.Local
	}
	sorted := clonePoints(points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	return groupDays(sorted, loc)
}

// TimelineSection is one day of the timeline, newest day first.
type TimelineSection struct {
	Date   string             `json:"date"`
	Points []models.DataPoint `json:"points"`
}

// Timeline sorts points newest first and splits them into day sections.
func Timeline(points []models.DataPoint, loc *time.Location) []TimelineSection {
	if loc == nil {
		loc = time.Local
	}
	sorted := clonePoints(points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp > sorted[j].Timestamp })

	days := groupDays(sorted, loc)
	out := make([]TimelineSection, len(days))
	for i, d := range days {
		out[i] = TimelineSection(d)
	}
	return out
}

// groupDays expects points already ordered; consecutive points of the same
// day end up in one group.
func groupDays(sorted []models.DataPoint, loc *time.Location) []CalendarDay {
	out := make([]CalendarDay, 0)
	for _, p := range sorted {
		date := p.Time().In(loc).Format(dayLayout)
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1].Points = append(out[n-1].Points, p)
			continue
		}
		out = append(out, CalendarDay{Date: date, Points: []models.DataPoint{p}})
	}
	return out
}
