// Package storage is the durable record store for series and data points,
// backed by a single SQLite file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const FileName = "tracer.db"

type Config struct {
	DataDir     string
	BusyTimeout time.Duration
}

// Database owns the SQLite handle. The handle is opened lazily on first use
// and again after DeleteDatabase, so the zero state is "not initialized".
type Database struct {
	mu   sync.Mutex
	conf Config
	db   *sql.DB
	now  func() time.Time
}

type Option func(*Database)

// WithClock overrides the time source used for createdAt/updatedAt and
// default timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Database) { d.now = now }
}

func New(conf Config, opts ...Option) *Database {
	d := &Database{conf: conf, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open creates a Database and eagerly opens and migrates it.
func Open(ctx context.Context, conf Config, opts ...Option) (*Database, error) {
	d := New(conf, opts...)
	if _, err := d.handle(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) Path() string {
	return filepath.Join(d.conf.DataDir, FileName)
}

func (d *Database) handle(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		return d.db, nil
	}
	db, err := d.open(ctx)
	if err != nil {
		return nil, unavailable("open", err)
	}
	d.db = db
	return db, nil
}

func (d *Database) open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(d.conf.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", d.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; transactions and cascades serialize on this connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := d.conf.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		fmt.Sprintf("PRAGMA busy_timeout=%d;", busy.Milliseconds()),
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (d *Database) SchemaVersion(ctx context.Context) (int, error) {
	db, err := d.handle(ctx)
	if err != nil {
		return 0, err
	}
	v, err := NewMigrator(db).CurrentVersion(ctx)
	return v, unavailable("schema version", err)
}

// Close releases the handle. A later call reopens it.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// DeleteDatabase irreversibly destroys both collections by removing the
// database file and its WAL side files.
func (d *Database) DeleteDatabase(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			return unavailable("close before delete", err)
		}
		d.db = nil
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		err := os.Remove(d.Path() + suffix)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return unavailable("delete database", err)
		}
	}
	return nil
}

func (d *Database) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	db, err := d.handle(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return unavailable(op, err)
	}
	return unavailable(op, tx.Commit())
}

func (d *Database) nowMillis() int64 {
	return d.now().UnixMilli()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
