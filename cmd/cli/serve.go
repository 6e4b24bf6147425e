package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netsweep/netsweep/internal/api"
	"github.com/netsweep/netsweep/internal/logging"
	"github.com/netsweep/netsweep/internal/scheduler"
	"github.com/netsweep/netsweep/internal/worker"
)

const workerStopTimeout = 30 * time.Second

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run netsweep as a long-lived service",
	Long: `Run the netsweep service in the foreground. The service accepts sweep
requests over the HTTP API, runs scheduled sweeps of registered networks,
and exposes Prometheus metrics. It stops on SIGINT or SIGTERM.`,
	Example: `  netsweep serve
  netsweep serve --config /etc/netsweep/config.yaml`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	rt := mustRuntime()
	cfg := rt.config
	m := rt.metrics
	submitter := worker.New(rt.runner, rt.lock, m)

	sched, err := scheduler.New(cfg.Sweep.Schedule, rt.registry, submitter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up scheduler: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Start()
	defer sched.Stop()

	logging.Info("netsweep service starting",
		"version", getVersion(),
		"schedule", cfg.Sweep.Schedule,
		"api_enabled", cfg.IsAPIEnabled())

	if cfg.IsAPIEnabled() {
		server := api.New(cfg, api.Dependencies{
			Submitter: submitter,
			Registry:  rt.registry,
			Ledger:    rt.ledger,
			Lock:      rt.lock,
			Metrics:   m,
		})
		if err := server.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	} else {
		<-ctx.Done()
	}

	logging.Info("netsweep service stopping")

	stopCtx, cancel := context.WithTimeout(context.Background(), workerStopTimeout)
	defer cancel()
	if err := submitter.Stop(stopCtx); err != nil {
		logging.Error("Worker did not stop cleanly", "error", err)
	}
}
