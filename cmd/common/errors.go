package common

import "errors"

var (
	// ErrLoggerRequired is returned when CommandDeps.Logger is nil.
	ErrLoggerRequired = errors.New("logger is required")
	// ErrConfigRequired is returned when CommandDeps.Config is nil.
	ErrConfigRequired = errors.New("config is required")
	// ErrEmptyRedisAddress is returned when a redis backend has no address.
	ErrEmptyRedisAddress = errors.New("redis address is required")
)
