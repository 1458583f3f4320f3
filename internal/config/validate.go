package config

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/jonesrussell/exposure-watch/internal/fetcher"
	"github.com/jonesrussell/exposure-watch/internal/logger"
)

// ValidationError is a configuration error for one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("must be one of %v, got %q", allowed, value)}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.Site.URL == "" {
		return &ValidationError{Field: "site.url", Message: "is required"}
	}
	u, err := url.Parse(c.Site.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "site.url", Message: "must be an absolute http or https URL"}
	}
	if c.Site.TableSelector == "" {
		return &ValidationError{Field: "site.table_selector", Message: "is required"}
	}

	if c.Check.Interval <= 0 {
		return &ValidationError{Field: "check.interval", Message: "must be positive"}
	}

	if err := oneOf("fetch.engine", c.Fetch.Engine, string(fetcher.EngineHTTP), string(fetcher.EngineColly)); err != nil {
		return err
	}
	if c.Fetch.Timeout <= 0 {
		return &ValidationError{Field: "fetch.timeout", Message: "must be positive"}
	}
	if c.Fetch.MaxAttempts < 1 {
		return &ValidationError{Field: "fetch.max_attempts", Message: "must be at least 1"}
	}

	if err := oneOf("snapshot.backend", c.Snapshot.Backend, BackendFile, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("notify.backend", c.Notify.Backend, BackendLog, BackendRedis); err != nil {
		return err
	}
	if c.Notify.Concurrency < 1 {
		return &ValidationError{Field: "notify.concurrency", Message: "must be at least 1"}
	}

	if c.UsesRedis() && c.Redis.Address == "" {
		return &ValidationError{Field: "redis.address", Message: "is required by the redis backend"}
	}
	if c.Server.Enabled && c.Server.Address == "" {
		return &ValidationError{Field: "server.address", Message: "is required when the server is enabled"}
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
	return oneOf("logging.format", c.Logging.Format, logger.DefaultFormat, logger.FormatConsole)
}
