package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1|max:65535"`
}

type StorageConfig struct {
	DataDir     string        `yaml:"dataDir" validate:"required|unixPath"`
	BusyTimeout time.Duration `yaml:"busyTimeout"`
}

// BackupConfig drives the compressed snapshot file. A zero Interval turns
// periodic backups off; the shutdown backup still runs when FilePath is set.
type BackupConfig struct {
	FilePath string        `yaml:"filePath" validate:"unixPath"`
	Interval time.Duration `yaml:"interval"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ViewsConfig.Timezone is an IANA name used for calendar bucketing; empty
// means the process' local zone.
type ViewsConfig struct {
	Timezone string `yaml:"timezone"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Storage   StorageConfig `yaml:"storage"`
	Backup    BackupConfig  `yaml:"backup"`
	Logger    LoggerConfig  `yaml:"logger"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Views     ViewsConfig   `yaml:"views"`
}
