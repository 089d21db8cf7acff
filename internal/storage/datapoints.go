package storage

import (
	"context"
	"database/sql"
	"errors"

	"tracer/internal/models"
)

const dataPointColumns = "id, series, value_kind, num_value, text_value, timestamp"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataPoint(row rowScanner) (models.DataPoint, error) {
	var (
		dp   models.DataPoint
		kind string
		num  sql.NullFloat64
		text sql.NullString
	)
	if err := row.Scan(&dp.ID, &dp.Series, &kind, &num, &text, &dp.Timestamp); err != nil {
		return dp, err
	}
	if models.SeriesType(kind) == models.SeriesText {
		dp.Value = models.TextValue(text.String)
	} else {
		dp.Value = models.NumberValue(num.Float64)
	}
	return dp, nil
}

func valueColumns(v models.Value) (string, sql.NullFloat64, sql.NullString) {
	if v.IsNumeric() {
		return string(models.SeriesNumeric), sql.NullFloat64{Float64: v.Float(), Valid: true}, sql.NullString{}
	}
	return string(models.SeriesText), sql.NullFloat64{}, sql.NullString{String: v.String(), Valid: true}
}

// AddDataPoint inserts a record and returns its id. A zero timestamp
// defaults to the current time.
func (d *Database) AddDataPoint(ctx context.Context, series string, value models.Value, timestamp int64) (int64, error) {
	if timestamp == 0 {
		timestamp = d.nowMillis()
	}
	var id int64
	err := d.withTx(ctx, "add datapoint", func(tx *sql.Tx) error {
		var err error
		id, err = insertDataPoint(ctx, tx, 0, series, value, timestamp)
		return err
	})
	return id, err
}

// AddDataPoints inserts a batch in one transaction; either every point is
// stored or none is.
func (d *Database) AddDataPoints(ctx context.Context, points []models.NewDataPoint) ([]models.DataPoint, error) {
	out := make([]models.DataPoint, 0, len(points))
	now := d.nowMillis()
	err := d.withTx(ctx, "add datapoints", func(tx *sql.Tx) error {
		for _, p := range points {
			ts := p.Timestamp
			if ts == 0 {
				ts = now
			}
			id, err := insertDataPoint(ctx, tx, 0, p.Series, p.Value, ts)
			if err != nil {
				return err
			}
			out = append(out, models.DataPoint{ID: id, Series: p.Series, Value: p.Value, Timestamp: ts})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertDataPoint(ctx context.Context, tx *sql.Tx, id int64, series string, value models.Value, timestamp int64) (int64, error) {
	kind, num, text := valueColumns(value)
	var (
		res sql.Result
		err error
	)
	if id > 0 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO datapoints (id, series, value_kind, num_value, text_value, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
			id, series, kind, num, text, timestamp)
	} else {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO datapoints (series, value_kind, num_value, text_value, timestamp) VALUES (?, ?, ?, ?, ?)`,
			series, kind, num, text, timestamp)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAllDataPoints returns the full collection in no particular order.
func (d *Database) GetAllDataPoints(ctx context.Context) ([]models.DataPoint, error) {
	db, err := d.handle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+dataPointColumns+" FROM datapoints")
	if err != nil {
		return nil, unavailable("list datapoints", err)
	}
	defer rows.Close()

	points := make([]models.DataPoint, 0)
	for rows.Next() {
		dp, err := scanDataPoint(rows)
		if err != nil {
			return nil, unavailable("scan datapoint", err)
		}
		points = append(points, dp)
	}
	return points, unavailable("list datapoints", rows.Err())
}

// GetDataPointsBySeries uses the series index; equivalent to filtering
// GetAllDataPoints.
func (d *Database) GetDataPointsBySeries(ctx context.Context, series string) ([]models.DataPoint, error) {
	db, err := d.handle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+dataPointColumns+" FROM datapoints WHERE series = ? ORDER BY timestamp", series)
	if err != nil {
		return nil, unavailable("list datapoints by series", err)
	}
	defer rows.Close()

	points := make([]models.DataPoint, 0)
	for rows.Next() {
		dp, err := scanDataPoint(rows)
		if err != nil {
			return nil, unavailable("scan datapoint", err)
		}
		points = append(points, dp)
	}
	return points, unavailable("list datapoints by series", rows.Err())
}

// UpdateDataPoint merges patch into the stored record. found is false, and
// nothing is written, when id does not exist.
func (d *Database) UpdateDataPoint(ctx context.Context, id int64, patch models.DataPointPatch) (updated models.DataPoint, found bool, err error) {
	err = d.withTx(ctx, "update datapoint", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+dataPointColumns+" FROM datapoints WHERE id = ?", id)
		current, err := scanDataPoint(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		patch.Apply(&current)
		kind, num, text := valueColumns(current.Value)
		_, err = tx.ExecContext(ctx,
			`UPDATE datapoints SET series = ?, value_kind = ?, num_value = ?, text_value = ?, timestamp = ? WHERE id = ?`,
			current.Series, kind, num, text, current.Timestamp, id)
		if err != nil {
			return err
		}
		updated, found = current, true
		return nil
	})
	if err != nil {
		return models.DataPoint{}, false, err
	}
	return updated, found, nil
}

// DeleteDataPoint removes the record; a missing id is not an error.
func (d *Database) DeleteDataPoint(ctx context.Context, id int64) error {
	db, err := d.handle(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "DELETE FROM datapoints WHERE id = ?", id)
	return unavailable("delete datapoint", err)
}
