package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// Migration is one additive schema step. Versions only move forward.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version     int
	AppliedAt   time.Time
	Description string
	Checksum    string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "create_datapoints",
		SQL: `
		CREATE TABLE IF NOT EXISTS datapoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			series TEXT NOT NULL,
			value_kind TEXT NOT NULL CHECK(value_kind IN ('numeric', 'text')),
			num_value REAL,
			text_value TEXT,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_datapoints_series ON datapoints(series);
		CREATE INDEX IF NOT EXISTS idx_datapoints_timestamp ON datapoints(timestamp);`,
	},
	{
		Version:     2,
		Description: "create_series",
		SQL: `
		CREATE TABLE IF NOT EXISTS series (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			emoji TEXT,
			unit TEXT,
			description TEXT,
			type TEXT CHECK(type IS NULL OR type IN ('numeric', 'text')),
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			data_added_at INTEGER
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_series_name ON series(name);`,
	},
}

// LatestVersion is the schema version this binary writes.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL,
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`)
	return err
}

func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func (m *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var a AppliedMigration
		var appliedAt int64
		if err := rows.Scan(&a.Version, &appliedAt, &a.Description, &a.Checksum); err != nil {
			return nil, err
		}
		a.AppliedAt = time.UnixMilli(appliedAt)
		applied = append(applied, a)
	}
	return applied, rows.Err()
}

// Up applies every pending migration in ascending order, each in its own
// transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema_migrations: %w", err)
	}
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	latest := m.migrations[len(m.migrations)-1].Version
	if current > latest {
		return fmt.Errorf("%w: found v%d, supported up to v%d", ErrSchemaTooNew, current, latest)
	}

	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration V%d: %w", mig.Version, err)
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	hash := sha256.Sum256([]byte(mig.SQL))
	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, description, checksum) VALUES (?, ?, ?, ?)`,
		mig.Version, time.Now().UnixMilli(), mig.Description, hex.EncodeToString(hash[:]))
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
