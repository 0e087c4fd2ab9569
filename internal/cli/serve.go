package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auri-app/auri/internal/server"
	"github.com/auri-app/auri/pkg/cache"
	"github.com/auri-app/auri/pkg/metrics"
	"github.com/auri-app/auri/pkg/pipeline"
)

// serveCommand creates the serve command, which starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noAuth    bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Requests to /v1 need a bearer token signed with server.jwt_secret (see
'auri token'). With --no-auth every request acts as the configured user.
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("no-auth") {
				c.Config.Server.NoAuth = noAuth
			}
			return c.runServe(cmd.Context(), !noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "serve without authentication, as the configured user")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, withMetrics bool) error {
	logger := loggerFromContext(ctx)

	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	ch, err := c.newCache(ctx, false)
	if err != nil {
		return err
	}
	defer ch.Close()

	analyzer, err := c.newAnalyzer(ch)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Store:    store,
		Analyzer: analyzer,
		Runner:   pipeline.NewRunner(ch, cache.NewDefaultKeyer(), logger),
		Logger:   logger,
	}
	if withMetrics {
		reg := metrics.DefaultRegistry()
		reg.Install()
		deps.Metrics = reg
	}

	srv, err := server.New(c.Config, deps)
	if err != nil {
		return err
	}
	if c.Config.Server.NoAuth {
		logger.Warn("authentication disabled", "user", c.Config.User)
	}

	start := time.Now()
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped", "uptime", time.Since(start).Round(time.Second))
	return nil
}
