//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"tracer/internal"
	"tracer/internal/backup"
	"tracer/internal/controllers"
	"tracer/internal/providers"
	"tracer/internal/services"
	"tracer/internal/structures"
)

var storeSet = wire.NewSet(
	providers.NewStorageProvider,
	providers.NewDataStoreProvider,
	wire.Bind(new(services.DataStoreInterface), new(*services.DataStore)),
	wire.Bind(new(providers.StoreStats), new(*services.DataStore)),
	wire.Bind(new(backup.Snapshotter), new(*services.DataStore)),
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewManagedLogProvider,
		storeSet,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		backup.NewZstdCompressor,
		backup.NewManagedFileManager,
		backup.NewScheduler,
		controllers.NewApiController,
		controllers.NewViewController,
		controllers.NewHealthController,
		controllers.NewFeedController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}

func InitToolkit(cfg *structures.CliFlags) (*internal.Toolkit, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewManagedLogProvider,
		storeSet,

		backup.NewZstdCompressor,
		backup.NewManagedFileManager,
		internal.NewToolkit,
	)

	return nil, nil, nil
}
