package providers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"tracer/internal/structures"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypeGet
	TypePost
	TypeStore
	TypeBackup
)

func (t TypeEnum) String() string {
	switch t {
	case TypeGet:
		return "get"
	case TypePost:
		return "post"
	case TypeStore:
		return "store"
	case TypeBackup:
		return "backup"
	default:
		return "app"
	}
}

type Logger interface {
	Infof(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Errorf(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

// GetLogTypeByRequestType maps an HTTP method to the access log category.
func GetLogTypeByRequestType(method string) TypeEnum {
	if method == "POST" {
		return TypePost
	}
	return TypeGet
}

// LogProvider writes request logs to access.log and everything else to
// app.log. In debug mode both are mirrored to stderr.
type LogProvider struct {
	app    zerolog.Logger
	access zerolog.Logger
	files  []*os.File
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	mode := os.FileMode(conf.Logger.Mode)
	if mode == 0 {
		mode = 0644
	}

	lp := &LogProvider{}
	open := func(name string) (io.Writer, error) {
		f, err := os.OpenFile(filepath.Join(conf.Logger.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, mode)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
		}
		lp.files = append(lp.files, f)
		if conf.Debug {
			return zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr}), nil
		}
		return f, nil
	}

	appOut, err := open("app.log")
	if err != nil {
		return nil, err
	}
	accessOut, err := open("access.log")
	if err != nil {
		lp.Close()
		return nil, err
	}

	lp.app = zerolog.New(appOut).Level(level).With().Timestamp().Logger()
	lp.access = zerolog.New(accessOut).Level(level).With().Timestamp().Logger()
	return lp, nil
}

// NewManagedLogProvider is NewLogProvider with a cleanup that closes the log
// files.
func NewManagedLogProvider(conf *structures.Config) (Logger, func(), error) {
	logger, err := NewLogProvider(conf)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Close, nil
}

func (l *LogProvider) logger(t TypeEnum) *zerolog.Logger {
	if t == TypeGet || t == TypePost {
		return &l.access
	}
	return &l.app
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Info().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Warn().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Error().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Debug().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l.logger(t).Fatal().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Close() {
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}
