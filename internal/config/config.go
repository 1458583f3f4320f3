// Package config loads the exposure-watch configuration from YAML, .env
// files and environment variables.
package config

import (
	"time"

	"github.com/jonesrussell/exposure-watch/internal/fetcher"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/notifier"
	"github.com/jonesrussell/exposure-watch/internal/parser"
	"github.com/jonesrussell/exposure-watch/internal/retry"
	"github.com/jonesrussell/exposure-watch/internal/snapshot"
	"github.com/jonesrussell/exposure-watch/internal/targets"
	"github.com/jonesrussell/exposure-watch/internal/watcher"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendLog   = "log"
)

const (
	defaultServerAddress = ":8080"
	defaultRedisAddress  = "localhost:6379"
)

// Config is the application configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Check    CheckConfig    `yaml:"check"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Targets  TargetsConfig  `yaml:"targets"`
	Notify   NotifyConfig   `yaml:"notify"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	Logging  logger.Config  `yaml:"logging"`
}

// SiteConfig names the page to watch.
type SiteConfig struct {
	URL           string `env:"SITE_URL"            yaml:"url"`
	TableSelector string `env:"SITE_TABLE_SELECTOR" yaml:"table_selector"`
}

// CheckConfig sets the check cadence. Interval takes precedence over the
// legacy MinutesBetweenChecks.
type CheckConfig struct {
	Interval             time.Duration `env:"CHECK_INTERVAL"         yaml:"interval"`
	MinutesBetweenChecks float64       `env:"MINUTES_BETWEEN_CHECKS" yaml:"minutes_between_checks"`
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	Engine      string        `env:"FETCH_ENGINE"       yaml:"engine"`
	Timeout     time.Duration `env:"FETCH_TIMEOUT"      yaml:"timeout"`
	UserAgent   string        `env:"FETCH_USER_AGENT"   yaml:"user_agent"`
	MaxAttempts int           `env:"FETCH_MAX_ATTEMPTS" yaml:"max_attempts"`
	RetryDelay  time.Duration `env:"FETCH_RETRY_DELAY"  yaml:"retry_delay"`
}

// SnapshotConfig selects where the snapshot lives.
type SnapshotConfig struct {
	Backend  string `env:"SNAPSHOT_BACKEND"   yaml:"backend"`
	Path     string `env:"SNAPSHOT_PATH"      yaml:"path"`
	RedisKey string `env:"SNAPSHOT_REDIS_KEY" yaml:"redis_key"`
}

// TargetsConfig locates the target registry file.
type TargetsConfig struct {
	Path string `env:"TARGETS_PATH" yaml:"path"`
}

// NotifyConfig configures delivery to targets.
type NotifyConfig struct {
	Backend         string        `env:"NOTIFY_BACKEND"          yaml:"backend"`
	ChannelPrefix   string        `env:"NOTIFY_CHANNEL_PREFIX"   yaml:"channel_prefix"`
	Concurrency     int           `env:"NOTIFY_CONCURRENCY"      yaml:"concurrency"`
	BreakerFailures int           `env:"NOTIFY_BREAKER_FAILURES" yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `env:"NOTIFY_BREAKER_TIMEOUT"  yaml:"breaker_timeout"`
}

// RedisConfig holds the Redis connection used by the redis backends.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// ServerConfig configures the optional ops HTTP server.
type ServerConfig struct {
	Enabled bool   `env:"SERVER_ENABLED" yaml:"enabled"`
	Address string `env:"SERVER_ADDRESS" yaml:"address"`
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.Site.TableSelector == "" {
		c.Site.TableSelector = parser.DefaultTableSelector
	}

	if c.Check.Interval == 0 {
		if c.Check.MinutesBetweenChecks > 0 {
			c.Check.Interval = time.Duration(c.Check.MinutesBetweenChecks * float64(time.Minute))
		} else {
			c.Check.Interval = watcher.DefaultInterval
		}
	}

	retryDefaults := retry.DefaultConfig()
	if c.Fetch.Engine == "" {
		c.Fetch.Engine = string(fetcher.EngineHTTP)
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = fetcher.DefaultTimeout
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = fetcher.DefaultUserAgent
	}
	if c.Fetch.MaxAttempts == 0 {
		c.Fetch.MaxAttempts = retryDefaults.MaxAttempts
	}
	if c.Fetch.RetryDelay == 0 {
		c.Fetch.RetryDelay = retryDefaults.InitialDelay
	}

	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendFile
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = snapshot.DefaultPath
	}
	if c.Snapshot.RedisKey == "" {
		c.Snapshot.RedisKey = snapshot.DefaultRedisKey
	}

	if c.Targets.Path == "" {
		c.Targets.Path = targets.DefaultPath
	}

	notifyDefaults := notifier.DefaultConfig()
	if c.Notify.Backend == "" {
		c.Notify.Backend = BackendLog
	}
	if c.Notify.ChannelPrefix == "" {
		c.Notify.ChannelPrefix = notifier.DefaultChannelPrefix
	}
	if c.Notify.Concurrency == 0 {
		c.Notify.Concurrency = notifyDefaults.Concurrency
	}
	if c.Notify.BreakerFailures == 0 {
		c.Notify.BreakerFailures = notifyDefaults.BreakerFailures
	}
	if c.Notify.BreakerTimeout == 0 {
		c.Notify.BreakerTimeout = notifyDefaults.BreakerTimeout
	}

	if c.Redis.Address == "" {
		c.Redis.Address = defaultRedisAddress
	}
	if c.Server.Address == "" {
		c.Server.Address = defaultServerAddress
	}

	c.Logging.SetDefaults()
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Snapshot.Backend == BackendRedis || c.Notify.Backend == BackendRedis
}

// RetryConfig returns the fetch retry settings.
func (c *Config) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.Fetch.MaxAttempts
	cfg.InitialDelay = c.Fetch.RetryDelay
	return cfg
}

// DispatcherConfig returns the notifier settings.
func (c *Config) DispatcherConfig() notifier.Config {
	return notifier.Config{
		Concurrency:     c.Notify.Concurrency,
		BreakerFailures: c.Notify.BreakerFailures,
		BreakerTimeout:  c.Notify.BreakerTimeout,
	}
}
