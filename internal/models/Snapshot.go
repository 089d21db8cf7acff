package models

import "time"

const SnapshotVersion = 1

// Snapshot is the backup envelope for the whole store. SchemaVersion records
// the storage schema the rows were read from.
type Snapshot struct {
	Version       int          `json:"version"`
	SchemaVersion int          `json:"schema_version"`
	CreatedAt     time.Time    `json:"created_at"`
	Series        []DataSeries `json:"series"`
	DataPoints    []DataPoint  `json:"datapoints"`
}
