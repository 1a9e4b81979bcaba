package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"farm-alerts/internal/api"
	"farm-alerts/internal/metrics"
	"farm-alerts/internal/service"
)

var serveAddr string // Listen address overriding server.addr

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the alert view current and serve it over HTTP",
	Long: `Run the alert monitor and the HTTP API until interrupted.

The monitor polls the sensor source every monitor.poll_interval while
auto-refresh is enabled and recomputes on every preference or history change.
The API is served under /api/v1, Prometheus metrics under /metrics.

Examples:
  farmalert serve -c config.yaml
  farmalert serve -c config.yaml --addr 127.0.0.1:9090`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.addr")
}

// runServe wires the monitor, metrics and API server and runs them together.
func runServe(cmd *cobra.Command, args []string) {
	printBanner()
	cfg, logger := mustLoadConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	m, err := metrics.New(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to create metrics: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := mustNewApp(ctx, cfg, logger, m.PersistFailure)

	monitor := a.newMonitor()
	monitor.OnUpdate(func(r *service.Result) {
		m.Observe(r.Summary)
	})

	server := api.NewServer(monitor, a.prefs, api.Options{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Metrics:         m,
	}, logger)

	fmt.Printf("🚀 Serving on %s (poll every %s)\n", cfg.Server.Addr, cfg.Monitor.PollInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		return server.Start(gctx)
	})

	runErr := g.Wait()
	closeErr := a.Close()

	if runErr != nil {
		logger.Error().Err(runErr).Msg("serve failed")
		fmt.Fprintf(os.Stderr, "❌ %v\n", runErr)
		os.Exit(1)
	}
	if closeErr != nil {
		logger.Warn().Err(closeErr).Msg("failed to flush preferences on shutdown")
	}
	fmt.Println("👋 Stopped")
}
