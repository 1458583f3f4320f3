// Package watch implements the long-running watch command.
package watch

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/exposure-watch/cmd/common"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/metrics"
	"github.com/jonesrussell/exposure-watch/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Command returns the watch command.
func Command(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Check the listing on an interval and announce new sites",
		Long: `watch loads the last snapshot, checks the listing immediately and then
on every interval. New sites are saved and announced to every registered
target. Stops cleanly on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, cancel := common.SignalContext(cmd.Context(), deps.Logger)
			defer cancel()

			return run(ctx, deps, version)
		},
	}
}

func run(ctx context.Context, deps *common.CommandDeps, version string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	w, err := deps.NewWatcher(ctx, m, false)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	deps.Logger.Info("Starting exposure-watch",
		logger.String("version", version),
		logger.String("url", deps.Config.Site.URL),
		logger.Duration("interval", deps.Config.Check.Interval),
		logger.String("snapshot_backend", deps.Config.Snapshot.Backend),
		logger.String("notify_backend", deps.Config.Notify.Backend),
	)

	g, gctx := errgroup.WithContext(ctx)

	if deps.Config.Server.Enabled {
		if deps.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := server.New(server.Config{
			Address:     deps.Config.Server.Address,
			ServiceName: common.ServiceName,
			Version:     version,
		}, w, reg, deps.Logger)

		g.Go(func() error { return srv.Run(gctx) })
	}

	g.Go(func() error { return w.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
