package storage

import (
	"context"
	"database/sql"

	"tracer/internal/models"
)

// ReplaceAll swaps both collections for the given records in one
// transaction, keeping their ids. Used to restore a backup.
func (d *Database) ReplaceAll(ctx context.Context, series []models.DataSeries, points []models.DataPoint) error {
	return d.withTx(ctx, "replace all", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM datapoints"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM series"); err != nil {
			return err
		}
		for _, s := range series {
			if _, err := insertSeries(ctx, tx, s); err != nil {
				return err
			}
		}
		for _, p := range points {
			if _, err := insertDataPoint(ctx, tx, p.ID, p.Series, p.Value, p.Timestamp); err != nil {
				return err
			}
		}
		return nil
	})
}
