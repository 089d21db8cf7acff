// Package backup writes the whole store to a compressed snapshot file and
// restores it from one.
package backup

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"tracer/internal/backup/interfaces"
	"tracer/internal/models"
	"tracer/internal/providers"
)

// Snapshotter is the part of the store a backup needs.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	Restore(ctx context.Context, snap *models.Snapshot) error
}

type FileManager struct {
	store      Snapshotter
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store Snapshotter, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

// SaveToFile replaces fileName atomically: the snapshot goes to a temp file
// that is synced and then renamed over the target.
func (f *FileManager) SaveToFile(ctx context.Context, fileName string) error {
	snap, err := f.store.Snapshot(ctx)
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// NewManagedFileManager returns a FileManager and a cleanup that releases its
// compressor.
func NewManagedFileManager(compressor interfaces.CompressorInterface, store Snapshotter, logger providers.Logger) (*FileManager, func()) {
	fm := NewFileManager(compressor, store, logger)
	return fm, fm.Close
}

// LoadFromFile restores the store from fileName. A missing file leaves the
// store as it is.
func (f *FileManager) LoadFromFile(ctx context.Context, fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Warnf(providers.TypeBackup, "No backup found at %s", fileName)
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("backup %s: %w", fileName, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(decompressedData, &snap); err != nil {
		return fmt.Errorf("backup %s: %w", fileName, err)
	}

	if err := f.store.Restore(ctx, &snap); err != nil {
		return err
	}
	f.logger.Infof(providers.TypeBackup, "Restored %d series and %d data points from %s", len(snap.Series), len(snap.DataPoints), fileName)
	return nil
}
