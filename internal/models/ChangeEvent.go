package models

type ChangeKind string

const (
	ChangeDataPointsLoaded ChangeKind = "datapoints.loaded"
	ChangeDataPointAdded   ChangeKind = "datapoint.added"
	ChangeDataPointUpdated ChangeKind = "datapoint.updated"
	ChangeDataPointDeleted ChangeKind = "datapoint.deleted"
	ChangeDataImported     ChangeKind = "datapoints.imported"
	ChangeSeriesLoaded     ChangeKind = "series.loaded"
	ChangeSeriesAdded      ChangeKind = "series.added"
	ChangeSeriesUpdated    ChangeKind = "series.updated"
	ChangeSeriesDeleted    ChangeKind = "series.deleted"
	ChangeRestored         ChangeKind = "store.restored"
	ChangeReset            ChangeKind = "store.reset"
)

// ChangeEvent is published by the store after every cache mutation.
type ChangeEvent struct {
	Kind        ChangeKind `json:"kind"`
	Revision    uint64     `json:"revision"`
	DataPointID int64      `json:"dataPointId,omitempty"`
	SeriesID    int64      `json:"seriesId,omitempty"`
	Series      string     `json:"series,omitempty"`
	Count       int        `json:"count,omitempty"`
}
