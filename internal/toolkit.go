package internal

import (
	"context"
	"errors"
	"io"
	"os"

	"tracer/internal/backup"
	"tracer/internal/interchange"
	"tracer/internal/providers"
	"tracer/internal/services"
	"tracer/internal/structures"
)

// Toolkit runs the offline commands against the store without starting the
// HTTP server.
type Toolkit struct {
	Conf   *structures.Config
	logger providers.Logger
	store  services.DataStoreInterface
	files  *backup.FileManager
}

func NewToolkit(conf *structures.Config, logger providers.Logger, store services.DataStoreInterface, files *backup.FileManager) *Toolkit {
	return &Toolkit{Conf: conf, logger: logger, store: store, files: files}
}

func (t *Toolkit) Export(w io.Writer) (int, error) {
	points := t.store.DataPoints()
	if err := interchange.Export(w, points); err != nil {
		return 0, err
	}
	return len(points), nil
}

func (t *Toolkit) Import(ctx context.Context, r io.Reader) (int, error) {
	batch, err := interchange.Import(r)
	if err != nil {
		return 0, err
	}
	stored, err := t.store.ImportDataPoints(ctx, batch)
	if err != nil {
		return 0, err
	}
	t.logger.Infof(providers.TypeStore, "Imported %d data points", len(stored))
	return len(stored), nil
}

func (t *Toolkit) Generate(ctx context.Context, req interchange.GenerateRequest) (int, error) {
	batch, err := interchange.Generate(req, nil)
	if err != nil {
		return 0, err
	}
	stored, err := t.store.ImportDataPoints(ctx, batch)
	if err != nil {
		return 0, err
	}
	return len(stored), nil
}

// Backup writes a snapshot to path, or to backup.filePath when path is empty.
func (t *Toolkit) Backup(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = t.Conf.Backup.FilePath
	}
	if path == "" {
		return "", errNoBackupPath
	}
	return path, t.files.SaveToFile(ctx, path)
}

func (t *Toolkit) Restore(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = t.Conf.Backup.FilePath
	}
	if path == "" {
		return "", errNoBackupPath
	}
	// LoadFromFile tolerates a missing file; an explicit restore does not.
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, t.files.LoadFromFile(ctx, path)
}

func (t *Toolkit) Reset(ctx context.Context) error {
	if err := t.store.DeleteDatabase(ctx); err != nil {
		return err
	}
	t.logger.Warnf(providers.TypeStore, "Database reset")
	return nil
}

func (t *Toolkit) Stats() (series, points int) {
	return t.store.SeriesCount(), t.store.DataPointCount()
}

var errNoBackupPath = errors.New("no backup file given and backup.filePath is not set")
