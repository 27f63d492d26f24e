package flagkit

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/flagkit/flagkit/pkg/logger"
)

// Config is the environment-driven client configuration.
type Config struct {
	// DatafilePath points at the JSON or YAML datafile to load.
	DatafilePath string `env:"FLAGKIT_DATAFILE_PATH,required"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `env:"FLAGKIT_LOG_LEVEL" envDefault:"info"`

	// LogFormat is json or text.
	LogFormat string `env:"FLAGKIT_LOG_FORMAT" envDefault:"json"`
}

// NewFromEnv builds a Client from environment variables, reading an
// optional .env file first. Extra options are applied after the
// env-derived ones, so an explicit WithLogger wins over the env logger.
func NewFromEnv(opts ...Option) (*Client, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	format := logger.Format(cfg.LogFormat)
	if format != logger.FormatJSON && format != logger.FormatText {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("unknown log format %q", cfg.LogFormat))
	}

	log := logger.New(
		logger.WithLevel(level),
		logger.WithFormat(format),
		logger.WithAttr(slog.String("component", "flagkit")),
	)

	return NewFromFile(cfg.DatafilePath, append([]Option{WithLogger(log)}, opts...)...)
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
