package common

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/config"
	"github.com/jonesrussell/exposure-watch/internal/fetcher"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/metrics"
	"github.com/jonesrussell/exposure-watch/internal/notifier"
	"github.com/jonesrussell/exposure-watch/internal/parser"
	"github.com/jonesrussell/exposure-watch/internal/snapshot"
	"github.com/jonesrussell/exposure-watch/internal/targets"
	"github.com/jonesrussell/exposure-watch/internal/watcher"
	"github.com/redis/go-redis/v9"
)

const redisConnectTimeout = 5 * time.Second

// Redis returns the shared Redis client, connecting on first use.
func (d *CommandDeps) Redis(ctx context.Context) (*redis.Client, error) {
	if d.redis != nil {
		return d.redis, nil
	}

	cfg := d.Config.Redis
	if cfg.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	d.redis = client
	return client, nil
}

// NewStore builds the configured snapshot store.
func (d *CommandDeps) NewStore(ctx context.Context) (snapshot.Store, error) {
	if d.Config.Snapshot.Backend != config.BackendRedis {
		return snapshot.NewFileStore(d.Config.Snapshot.Path), nil
	}

	client, err := d.Redis(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.NewRedisStore(client, d.Config.Snapshot.RedisKey), nil
}

// NewFetcher builds the configured fetcher wrapped with retries.
func (d *CommandDeps) NewFetcher() (fetcher.Fetcher, error) {
	f, err := fetcher.New(fetcher.Options{
		Engine:    fetcher.Engine(d.Config.Fetch.Engine),
		Timeout:   d.Config.Fetch.Timeout,
		UserAgent: d.Config.Fetch.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return fetcher.NewRetrying(f, d.Config.RetryConfig(), d.Logger.With(logger.Component("fetcher"))), nil
}

// NewRegistry builds the target registry.
func (d *CommandDeps) NewRegistry() *targets.Registry {
	return targets.NewRegistry(d.Config.Targets.Path, d.Logger)
}

// NewSender builds the configured delivery backend.
func (d *CommandDeps) NewSender(ctx context.Context) (notifier.Sender, error) {
	if d.Config.Notify.Backend != config.BackendRedis {
		return notifier.NewLogSender(d.Logger), nil
	}

	client, err := d.Redis(ctx)
	if err != nil {
		return nil, err
	}
	return notifier.NewRedisSender(client, d.Config.Notify.ChannelPrefix), nil
}

// NewWatcher wires a watcher from the configuration. m may be nil.
func (d *CommandDeps) NewWatcher(ctx context.Context, m *metrics.Metrics, dryRun bool) (*watcher.Watcher, error) {
	store, err := d.NewStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	f, err := d.NewFetcher()
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}

	var sender notifier.Sender = notifier.NewLogSender(d.Logger)
	if !dryRun {
		sender, err = d.NewSender(ctx)
		if err != nil {
			return nil, fmt.Errorf("notifier: %w", err)
		}
	}
	dispatcher := notifier.NewDispatcher(d.NewRegistry(), sender, d.Config.DispatcherConfig(), d.Logger, m)

	return watcher.New(watcher.Deps{
		Fetcher: f,
		Parser: parser.New(parser.Options{
			TableSelector: d.Config.Site.TableSelector,
			Logger:        d.Logger,
		}),
		Store:    store,
		Notifier: dispatcher,
		Logger:   d.Logger,
		Metrics:  m,
	}, watcher.Options{
		URL:      d.Config.Site.URL,
		Interval: d.Config.Check.Interval,
		DryRun:   dryRun,
	})
}
