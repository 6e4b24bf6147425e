// Package scheduler drives periodic sweeps. On each cron tick every enabled
// registry network is submitted in name order; a busy rejection skips the
// network rather than failing the tick.
package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/logging"
	"github.com/netsweep/netsweep/internal/registry"
	"github.com/netsweep/netsweep/internal/sweep"
	"github.com/netsweep/netsweep/internal/worker"
)

// Scheduler submits enabled networks on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	registry  *registry.Registry
	submitter *worker.Submitter
	logger    *logging.Logger
	entryID   cron.EntryID
}

// New creates a scheduler for the given cron expression (standard 5-field
// syntax). An empty expression yields a disabled scheduler whose Start and
// Stop are no-ops.
func New(expr string, reg *registry.Registry, submitter *worker.Submitter) (*Scheduler, error) {
	s := &Scheduler{
		registry:  reg,
		submitter: submitter,
		logger:    logging.Default().WithComponent("scheduler"),
	}
	if expr == "" {
		return s, nil
	}

	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, errors.WrapConfigError(errors.CodeValidation,
			"Invalid sweep schedule", err)
	}

	s.cron = cron.New()
	entryID, err := s.cron.AddFunc(expr, s.tick)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeValidation,
			"Invalid sweep schedule", err)
	}
	s.entryID = entryID
	return s, nil
}

// Enabled reports whether a schedule was configured.
func (s *Scheduler) Enabled() bool {
	return s.cron != nil
}

// Start begins firing ticks.
func (s *Scheduler) Start() {
	if s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("Sweep scheduler started",
		"next_run", s.cron.Entry(s.entryID).Next)
}

// Stop halts the cron loop. In-flight submissions are owned by the worker
// and keep running.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Sweep scheduler stopped")
}

// tick submits every enabled network. Only one can be accepted per tick
// since the worker is single flight; the rest report busy and are skipped.
func (s *Scheduler) tick() {
	networks := s.registry.ListEnabled()
	if len(networks) == 0 {
		s.logger.Debug("No enabled networks to sweep")
		return
	}

	for _, network := range networks {
		accepted, err := s.submitter.Submit(sweep.Target{Name: network.Name})
		if err != nil {
			if errors.IsBusy(err) {
				s.logger.Info("Skipping scheduled sweep, runner busy",
					"network", network.Name)
			} else {
				s.logger.Error("Failed to submit scheduled sweep",
					"network", network.Name, "error", err)
			}
			continue
		}
		s.logger.Info("Submitted scheduled sweep",
			"network", network.Name, "scan_id", accepted.ScanID)
	}
}
