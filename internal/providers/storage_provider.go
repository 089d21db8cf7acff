package providers

import (
	"context"

	"tracer/internal/services"
	"tracer/internal/storage"
	"tracer/internal/structures"
)

// NewStorageProvider opens and migrates the database. The cleanup closes it.
func NewStorageProvider(conf *structures.Config, logger Logger) (*storage.Database, func(), error) {
	db, err := storage.Open(context.Background(), storage.Config{
		DataDir:     conf.Storage.DataDir,
		BusyTimeout: conf.Storage.BusyTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	version, _ := db.SchemaVersion(context.Background())
	logger.Infof(TypeStore, "Opened %s (schema v%d)", db.Path(), version)

	return db, func() {
		if err := db.Close(); err != nil {
			logger.Errorf(TypeStore, "Error while closing database: %s", err)
		}
	}, nil
}

// NewDataStoreProvider builds the store and fills its cache from storage.
func NewDataStoreProvider(db *storage.Database, logger Logger) (*services.DataStore, error) {
	store := services.NewDataStore(db)
	if err := store.Load(context.Background()); err != nil {
		logger.Errorf(TypeStore, "Failed to load store: %s", err)
		return nil, err
	}
	logger.Infof(TypeStore, "Loaded %d series and %d data points", store.SeriesCount(), store.DataPointCount())
	return store, nil
}
