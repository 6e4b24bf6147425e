package cli

import (
	"github.com/netsweep/netsweep/internal/config"
	"github.com/netsweep/netsweep/internal/executor"
	"github.com/netsweep/netsweep/internal/history"
	"github.com/netsweep/netsweep/internal/influx"
	"github.com/netsweep/netsweep/internal/lockfile"
	"github.com/netsweep/netsweep/internal/metrics"
	"github.com/netsweep/netsweep/internal/registry"
	"github.com/netsweep/netsweep/internal/sweep"
)

// runtime bundles the long-lived components built from configuration.
type runtime struct {
	config   *config.Config
	registry *registry.Registry
	ledger   *history.Ledger
	lock     *lockfile.Lock
	metrics  *metrics.Metrics
	runner   *sweep.Runner
}

// newRuntime wires the sweep pipeline from the effective configuration.
func newRuntime(cfg *config.Config) *runtime {
	reg := registry.New(cfg.RegistryPath())
	ledger := history.New(cfg.HistoryPath(), cfg.Sweep.MaxHistory)
	lock := lockfile.New(cfg.LockPath())
	m := metrics.New()

	var publisher sweep.Publisher
	if cfg.Influx.Enabled {
		publisher = influx.New(cfg.Influx)
	}

	runner := sweep.NewRunner(sweep.Options{
		Sweep:       cfg.Sweep,
		ResultsDir:  cfg.ResultsDir,
		Measurement: cfg.Influx.Measurement,
		Executor:    executor.New(),
		Lock:        lock,
		Registry:    reg,
		Ledger:      ledger,
		Publisher:   publisher,
		Metrics:     m,
	})

	return &runtime{
		config:   cfg,
		registry: reg,
		ledger:   ledger,
		lock:     lock,
		metrics:  m,
		runner:   runner,
	}
}
