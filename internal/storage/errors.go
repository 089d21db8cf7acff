package storage

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrStorageUnavailable marks every failure of the storage engine:
	// closed or missing database, I/O errors, full disk, corrupt file.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrSeriesExists is returned when a series name is already taken.
	ErrSeriesExists = errors.New("series name already exists")

	// ErrSeriesMissing is returned by cascades whose series row is gone.
	ErrSeriesMissing = errors.New("series not found in storage")

	// ErrSchemaTooNew is returned when the database was written by a newer
	// schema than this binary knows; downgrades are not supported.
	ErrSchemaTooNew = errors.New("database schema is newer than supported")
)

type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageUnavailable, e.op, e.err)
}

func (e *unavailableError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.err}
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrSeriesExists) {
		return err
	}
	return &unavailableError{op: op, err: err}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// primary result code only when extended codes are off
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
