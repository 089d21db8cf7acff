package models

import "time"

type DataPoint struct {
	ID        int64  `json:"id"`
	Series    string `json:"series"`
	Value     Value  `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

func (p DataPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// NewDataPoint is the input of an add operation. A zero Timestamp means "now".
type NewDataPoint struct {
	Series    string `json:"series"`
	Value     Value  `json:"value"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// DataPointPatch carries the fields of a partial update; nil fields are kept.
type DataPointPatch struct {
	Series    *string `json:"series,omitempty"`
	Value     *Value  `json:"value,omitempty"`
	Timestamp *int64  `json:"timestamp,omitempty"`
}

func (p DataPointPatch) IsEmpty() bool {
	return p.Series == nil && p.Value == nil && p.Timestamp == nil
}

func (p DataPointPatch) Apply(dp *DataPoint) {
	if p.Series != nil {
		dp.Series = *p.Series
	}
	if p.Value != nil {
		dp.Value = *p.Value
	}
	if p.Timestamp != nil {
		dp.Timestamp = *p.Timestamp
	}
}
