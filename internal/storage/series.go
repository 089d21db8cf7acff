package storage

import (
	"context"
	"database/sql"
	"errors"

	"tracer/internal/models"
)

const seriesColumns = "id, name, color, emoji, unit, description, type, created_at, updated_at, data_added_at"

func scanSeries(row rowScanner) (models.DataSeries, error) {
	var (
		s                              models.DataSeries
		emoji, unit, description, kind sql.NullString
		dataAddedAt                    sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.Name, &s.Color, &emoji, &unit, &description, &kind, &s.CreatedAt, &s.UpdatedAt, &dataAddedAt)
	if err != nil {
		return s, err
	}
	s.Emoji = emoji.String
	s.Unit = unit.String
	s.Description = description.String
	s.Type = models.SeriesType(kind.String)
	s.DataAddedAt = dataAddedAt.Int64
	return s, nil
}

func insertSeries(ctx context.Context, tx *sql.Tx, s models.DataSeries) (int64, error) {
	var (
		res sql.Result
		err error
	)
	args := []any{s.Name, s.Color, nullString(s.Emoji), nullString(s.Unit), nullString(s.Description),
		nullString(string(s.Type)), s.CreatedAt, s.UpdatedAt, nullInt(s.DataAddedAt)}
	if s.ID > 0 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO series (id, name, color, emoji, unit, description, type, created_at, updated_at, data_added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, append([]any{s.ID}, args...)...)
	} else {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO series (name, color, emoji, unit, description, type, created_at, updated_at, data_added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrSeriesExists
		}
		return 0, err
	}
	return res.LastInsertId()
}

func writeSeries(ctx context.Context, tx *sql.Tx, s models.DataSeries) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE series SET name = ?, color = ?, emoji = ?, unit = ?, description = ?, type = ?,
		updated_at = ?, data_added_at = ? WHERE id = ?`,
		s.Name, s.Color, nullString(s.Emoji), nullString(s.Unit), nullString(s.Description),
		nullString(string(s.Type)), s.UpdatedAt, nullInt(s.DataAddedAt), s.ID)
	if isUniqueViolation(err) {
		return ErrSeriesExists
	}
	return err
}

// AddSeries inserts a series with createdAt/updatedAt set to now and returns
// the stored record. A name already in use yields ErrSeriesExists.
func (d *Database) AddSeries(ctx context.Context, params models.NewSeries) (models.DataSeries, error) {
	now := d.nowMillis()
	s := models.DataSeries{
		Name:        params.Name,
		Color:       params.Color,
		Emoji:       params.Emoji,
		Unit:        params.Unit,
		Description: params.Description,
		Type:        params.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := d.withTx(ctx, "add series", func(tx *sql.Tx) error {
		id, err := insertSeries(ctx, tx, s)
		s.ID = id
		return err
	})
	if err != nil {
		return models.DataSeries{}, err
	}
	return s, nil
}

func (d *Database) GetAllSeries(ctx context.Context) ([]models.DataSeries, error) {
	db, err := d.handle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+seriesColumns+" FROM series")
	if err != nil {
		return nil, unavailable("list series", err)
	}
	defer rows.Close()

	out := make([]models.DataSeries, 0)
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, unavailable("scan series", err)
		}
		out = append(out, s)
	}
	return out, unavailable("list series", rows.Err())
}

// GetSeriesByName looks a series up by exact name.
func (d *Database) GetSeriesByName(ctx context.Context, name string) (models.DataSeries, bool, error) {
	db, err := d.handle(ctx)
	if err != nil {
		return models.DataSeries{}, false, err
	}
	s, err := scanSeries(db.QueryRowContext(ctx, "SELECT "+seriesColumns+" FROM series WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DataSeries{}, false, nil
	}
	if err != nil {
		return models.DataSeries{}, false, unavailable("get series", err)
	}
	return s, true, nil
}

// UpdateSeries merges patch, refreshes updatedAt and returns the stored
// record. found is false when id does not exist. It does not touch data
// points; use RenameSeriesCascade to rename.
func (d *Database) UpdateSeries(ctx context.Context, id int64, patch models.SeriesPatch) (updated models.DataSeries, found bool, err error) {
	err = d.withTx(ctx, "update series", func(tx *sql.Tx) error {
		current, err := scanSeries(tx.QueryRowContext(ctx, "SELECT "+seriesColumns+" FROM series WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		patch.Apply(&current)
		current.UpdatedAt = d.nowMillis()
		if err := writeSeries(ctx, tx, current); err != nil {
			return err
		}
		updated, found = current, true
		return nil
	})
	if err != nil {
		return models.DataSeries{}, false, err
	}
	return updated, found, nil
}

// DeleteSeries removes the series row only; data points are untouched.
func (d *Database) DeleteSeries(ctx context.Context, id int64) error {
	db, err := d.handle(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "DELETE FROM series WHERE id = ?", id)
	return unavailable("delete series", err)
}

// RenameSeriesCascade applies patch to the series and rewrites the series
// field of every data point that referenced oldName, in one transaction.
// It returns the updated series and the number of rewritten data points.
func (d *Database) RenameSeriesCascade(ctx context.Context, id int64, oldName string, patch models.SeriesPatch) (updated models.DataSeries, moved int64, err error) {
	var found bool
	err = d.withTx(ctx, "rename series", func(tx *sql.Tx) error {
		current, err := scanSeries(tx.QueryRowContext(ctx, "SELECT "+seriesColumns+" FROM series WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		patch.Apply(&current)
		current.UpdatedAt = d.nowMillis()
		if err := writeSeries(ctx, tx, current); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "UPDATE datapoints SET series = ? WHERE series = ?", current.Name, oldName)
		if err != nil {
			return err
		}
		moved, err = res.RowsAffected()
		updated, found = current, true
		return err
	})
	if err != nil {
		return models.DataSeries{}, 0, err
	}
	if !found {
		return models.DataSeries{}, 0, ErrSeriesMissing
	}
	return updated, moved, nil
}

// DeleteSeriesCascade removes every data point of name and then the series
// row, in one transaction. It returns the number of deleted data points.
func (d *Database) DeleteSeriesCascade(ctx context.Context, id int64, name string) (int64, error) {
	var deleted int64
	err := d.withTx(ctx, "delete series", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM datapoints WHERE series = ?", name)
		if err != nil {
			return err
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM series WHERE id = ?", id)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
