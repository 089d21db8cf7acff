package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"tracer/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8090)
	v.SetDefault("storage.busyTimeout", "5s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("cache.size", 16)

	v.BindEnv("logger.level", "TRACER_LOG_LEVEL")
	v.BindEnv("storage.dataDir", "TRACER_DATA_DIR")
	v.BindEnv("webServer.port", "TRACER_HTTP_PORT")
	v.BindEnv("backup.interval", "TRACER_BACKUP_INTERVAL")
	v.BindEnv("cache.enabled", "TRACER_CACHE_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "Tracer"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
