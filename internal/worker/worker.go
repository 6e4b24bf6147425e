// Package worker owns background sweep execution. Submissions are answered
// immediately with accepted or rejected; the run itself happens on a
// goroutine and its outcome lands in the history ledger.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/lockfile"
	"github.com/netsweep/netsweep/internal/logging"
	"github.com/netsweep/netsweep/internal/metrics"
	"github.com/netsweep/netsweep/internal/sweep"
)

// Accepted is the immediate answer to a successful submission.
type Accepted struct {
	ScanID string `json:"scan_id"`
}

// Submitter runs at most one sweep at a time in the background.
type Submitter struct {
	runner  *sweep.Runner
	lock    *lockfile.Lock
	metrics *metrics.Metrics
	logger  *logging.Logger

	mu       sync.Mutex
	activeID string
	wg       sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a submitter. The metrics instance may be nil.
func New(runner *sweep.Runner, lock *lockfile.Lock, m *metrics.Metrics) *Submitter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Submitter{
		runner:  runner,
		lock:    lock,
		metrics: m,
		logger:  logging.Default().WithComponent("worker"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit validates the target and, when nothing is running, starts a sweep
// in the background. The returned scan id identifies the run in status and
// history output. Busy and invalid submissions are rejected immediately.
func (s *Submitter) Submit(target sweep.Target) (*Accepted, error) {
	if _, _, err := s.runner.Resolve(target); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID != "" {
		return nil, errors.ErrLockHeld(s.activeID)
	}
	// A lock held by another process (a CLI run, say) also means busy.
	if holder, err := s.lock.Inspect(); err == nil && holder != nil {
		return nil, errors.ErrLockHeld(holder.ScanID)
	}

	scanID := sweep.NewScanID()
	s.activeID = scanID
	s.wg.Add(1)
	go s.run(target, scanID)

	return &Accepted{ScanID: scanID}, nil
}

// Active reports the scan id of the run in flight, if any.
func (s *Submitter) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeID != ""
}

// Stop cancels the in-flight run and waits for it to wind down or the
// context to expire.
func (s *Submitter) Stop(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Submitter) run(target sweep.Target, scanID string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.activeID = ""
		s.mu.Unlock()
	}()

	if s.metrics != nil {
		s.metrics.SweepStarted()
	}
	started := time.Now()

	summary, err := s.runner.RunWithID(s.ctx, target, scanID)

	status := "completed"
	network := sweep.ManualNetworkName
	if err != nil {
		status = "failed"
		s.logger.WithScanID(scanID).Error("Background sweep failed", "error", err)
	} else {
		network = summary.NetworkName
		if s.metrics != nil {
			s.metrics.HostsSwept(
				summary.Statistics.Phase2.HostsAnalyzed,
				summary.Statistics.Phase2.HostsFailed)
		}
	}
	if s.metrics != nil {
		s.metrics.SweepFinished(network, status, time.Since(started))
	}
}
