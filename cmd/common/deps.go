// Package common provides shared wiring for the exposure-watch commands.
package common

import (
	"fmt"

	"github.com/jonesrussell/exposure-watch/internal/config"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// ServiceName is attached to every log line.
const ServiceName = "exposure-watch"

// Viper keys for the global flags.
const (
	KeyConfig = "config"
	KeyDebug  = "debug"
)

// CommandDeps holds the dependencies shared by all commands.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Logger
	Debug  bool

	redis *redis.Client
}

// Validate ensures all required dependencies are present.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads and validates the configuration named by the
// --config flag (or CONFIG_PATH) and builds the logger.
func NewCommandDeps() (*CommandDeps, error) {
	path := viper.GetString(KeyConfig)
	if path == "" {
		path = config.GetConfigPath("")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	debug := viper.GetBool(KeyDebug)
	if debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = logger.FormatConsole
		cfg.Logging.Development = true
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validateErr)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	deps := &CommandDeps{
		Config: cfg,
		Logger: log.With(logger.String("service", ServiceName)),
		Debug:  debug,
	}
	if validateErr := deps.Validate(); validateErr != nil {
		return nil, validateErr
	}

	return deps, nil
}

// Close releases connections opened by the factories.
func (d *CommandDeps) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.Logger.Warn("Failed to close redis client", logger.Error(err))
		}
		d.redis = nil
	}
	_ = d.Logger.Sync()
}
