package projections

import (
	"tracer/internal/models"
)

// UniqueValuesBySeries lists the distinct values of each series in the order
// they are first seen in points.
func UniqueValuesBySeries(points []models.DataPoint) map[string][]models.Value {
	out := make(map[string][]models.Value)
	seen := make(map[string]map[string]struct{})
	for _, p := range points {
		keys, ok := seen[p.Series]
		if !ok {
			keys = make(map[string]struct{})
			seen[p.Series] = keys
		}
		k := p.Value.Key()
		if _, dup := keys[k]; dup {
			continue
		}
		keys[k] = struct{}{}
		out[p.Series] = append(out[p.Series], p.Value)
	}
	return out
}

func SeriesByName(series []models.DataSeries) map[string]models.DataSeries {
	out := make(map[string]models.DataSeries, len(series))
	for _, s := range series {
		out[s.Name] = s
	}
	return out
}

// InferSeriesType returns the explicit type when set. Otherwise a series is
// numeric only if it has values and all of them are numeric.
func InferSeriesType(s models.DataSeries, values []models.Value) models.SeriesType {
	if s.Type.Valid() {
		return s.Type
	}
	if len(values) == 0 {
		return models.SeriesText
	}
	for _, v := range values {
		if !v.IsNumeric() {
			return models.SeriesText
		}
	}
	return models.SeriesNumeric
}
