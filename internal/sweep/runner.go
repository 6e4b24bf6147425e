// Package sweep implements the two-phase scan pipeline: a fast full-range
// discovery pass over the target network followed by per-host service
// interrogation of the ports discovery found. Results are normalized,
// persisted, and published as measurement points.
package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netsweep/netsweep/internal/config"
	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/executor"
	"github.com/netsweep/netsweep/internal/history"
	"github.com/netsweep/netsweep/internal/lineproto"
	"github.com/netsweep/netsweep/internal/lockfile"
	"github.com/netsweep/netsweep/internal/logging"
	"github.com/netsweep/netsweep/internal/metrics"
	"github.com/netsweep/netsweep/internal/registry"
	"github.com/netsweep/netsweep/internal/scanparse"
)

const (
	resultsDirPerm  = 0750
	resultsFilePerm = 0600

	// Timestamp layout used in artifact file names.
	fileTimeLayout = "20060102T150405Z"
)

// Publisher delivers encoded measurement points to a metrics sink. Sweep
// failures never propagate from a publisher; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, points []lineproto.Point) error
}

// Options configures a Runner.
type Options struct {
	Sweep       config.SweepConfig
	ResultsDir  string
	Measurement string
	Executor    executor.Executor
	Lock        *lockfile.Lock
	Registry    *registry.Registry
	Ledger      *history.Ledger
	Publisher   Publisher
	Metrics     *metrics.Metrics
}

// Runner executes two-phase sweeps. A Runner is safe for concurrent use;
// the lock file guarantees only one run makes progress at a time.
type Runner struct {
	cfg         config.SweepConfig
	resultsDir  string
	measurement string
	exec        executor.Executor
	lock        *lockfile.Lock
	registry    *registry.Registry
	ledger      *history.Ledger
	publisher   Publisher
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

// NewRunner creates a sweep runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		cfg:         opts.Sweep,
		resultsDir:  opts.ResultsDir,
		measurement: opts.Measurement,
		exec:        opts.Executor,
		lock:        opts.Lock,
		registry:    opts.Registry,
		ledger:      opts.Ledger,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		logger:      logging.Default().WithComponent("sweep"),
	}
}

// NewScanID returns a fresh 8-character hexadecimal run identifier.
func NewScanID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Resolve validates a target and returns the network name and CIDR the run
// will use. Ad-hoc CIDR targets get the manual network name.
func (r *Runner) Resolve(target Target) (name, cidr string, err error) {
	switch {
	case target.Name != "" && target.CIDR != "":
		return "", "", errors.NewSweepError(errors.CodeTargetInvalid,
			"Target must name a network or give a CIDR, not both")
	case target.Name != "":
		network, err := r.registry.Get(target.Name)
		if err != nil {
			return "", "", errors.NewSweepErrorWithTarget(errors.CodeTargetInvalid,
				"Unknown network", target.Name)
		}
		if !network.Enabled {
			return "", "", errors.NewSweepErrorWithTarget(errors.CodeTargetInvalid,
				"Network is disabled", target.Name)
		}
		return network.Name, network.CIDR, nil
	case target.CIDR != "":
		_, ipNet, err := net.ParseCIDR(target.CIDR)
		if err != nil {
			return "", "", errors.ErrInvalidTarget(target.CIDR)
		}
		return ManualNetworkName, ipNet.String(), nil
	default:
		return "", "", errors.NewSweepError(errors.CodeTargetInvalid,
			"Target is empty")
	}
}

// Run executes a full two-phase sweep against the target. It returns the
// run summary on success. Discovery execution failures abort the run; detail
// failures for individual hosts drop those hosts and the run still
// completes, as does unparseable discovery output.
func (r *Runner) Run(ctx context.Context, target Target) (*Summary, error) {
	return r.RunWithID(ctx, target, NewScanID())
}

// RunWithID is Run with a caller-supplied scan identifier, used when the
// identifier was already handed out at submission time.
func (r *Runner) RunWithID(ctx context.Context, target Target, scanID string) (*Summary, error) {
	networkName, networkCIDR, err := r.Resolve(target)
	if err != nil {
		return nil, err
	}

	if err := r.lock.Acquire(scanID); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.lock.Release(); err != nil {
			r.logger.Error("Failed to release sweep lock", "error", err)
		}
	}()

	logger := r.logger.WithScanID(scanID).WithNetwork(networkName)
	logger.InfoSweep("Starting sweep", networkCIDR)

	if networkName != ManualNetworkName {
		if err := r.registry.RecordScanStarted(networkName); err != nil {
			logger.Warn("Failed to record scan start", "error", err)
		}
	}

	startedAt := time.Now().UTC()
	summary := &Summary{
		ScanID:      scanID,
		NetworkName: networkName,
		NetworkCIDR: networkCIDR,
		StartedAt:   startedAt,
	}

	hosts, err := r.runPhase1(ctx, scanID, networkCIDR, startedAt)
	if err != nil {
		logger.ErrorSweep("Discovery phase failed", networkCIDR, err)
		r.recordOutcome(summary, startedAt, "failed")
		return nil, err
	}
	summary.Results.Phase1Summary = hosts
	summary.Statistics.Phase1 = phase1Stats(hosts)
	logger.InfoSweep("Discovery phase complete", networkCIDR,
		"hosts", len(hosts), "open_ports", summary.Statistics.Phase1.TotalOpenPorts)

	details, failed := r.runPhase2(ctx, scanID, hosts, startedAt)
	summary.Results.Phase2Detailed = details
	summary.Statistics.Phase2 = phase2Stats(details, failed)

	completedAt := time.Now().UTC()
	summary.CompletedAt = completedAt
	summary.DurationSeconds = completedAt.Sub(startedAt).Seconds()

	logger.Info("Sweep complete",
		"hosts_analyzed", summary.Statistics.Phase2.HostsAnalyzed,
		"hosts_failed", failed,
		"duration_seconds", summary.DurationSeconds)

	// Persistence and publishing are best effort: the run already
	// succeeded, losing a side channel does not change that.
	if err := r.persist(summary); err != nil {
		logger.Error("Failed to persist sweep results", "error", err)
	}
	if err := r.recordHistory(summary, "completed"); err != nil {
		logger.Error("Failed to append sweep history", "error", err)
	}
	r.publish(ctx, logger, summary)

	return summary, nil
}

// runPhase1 performs the discovery scan over the whole network.
func (r *Runner) runPhase1(ctx context.Context, scanID, cidr string, startedAt time.Time) (
	[]scanparse.DiscoveredHost, error) {
	argv, err := executor.SplitTemplate(r.cfg.Phase1Command)
	if err != nil {
		return nil, errors.WrapSweepError(errors.CodePhase1Failed,
			"Invalid discovery command", err)
	}

	xmlPath := r.artifactPath("phase1", scanID, "", startedAt)
	if err := os.MkdirAll(r.resultsDir, resultsDirPerm); err != nil {
		return nil, errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to create results directory", err)
	}
	argv = append(argv, "-oX", xmlPath, cidr)

	if err := r.exec.Run(ctx, argv, r.cfg.Phase1Timeout); err != nil {
		return nil, errors.ErrPhase1Failed(cidr, err).WithScanID(scanID)
	}
	defer r.cleanupArtifact(xmlPath)

	// Trouble reading or parsing the report after a clean nmap exit
	// degrades to an empty host list; the run still completes with
	// zero hosts.
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		r.logger.WithScanID(scanID).ErrorSweep("Discovery output missing, treating as no data",
			cidr, errors.WrapSweepErrorWithTarget(errors.CodeParseFailed,
				"Discovery output missing", cidr, err))
		return nil, nil
	}
	return scanparse.ParseDiscovery(data), nil
}

// runPhase2 interrogates every discovered host, bounded by the configured
// concurrency. A host that fails is dropped and counted; the phase never
// fails as a whole.
func (r *Runner) runPhase2(ctx context.Context, scanID string,
	hosts []scanparse.DiscoveredHost, startedAt time.Time) (map[string]*scanparse.HostDetail, int) {
	details := make(map[string]*scanparse.HostDetail)
	if len(hosts) == 0 {
		return details, 0
	}

	var (
		mu     sync.Mutex
		failed int
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, r.cfg.ConcurrentScans)

	for _, host := range hosts {
		wg.Add(1)
		sem <- struct{}{}
		go func(host scanparse.DiscoveredHost) {
			defer wg.Done()
			defer func() { <-sem }()

			detail, err := r.scanHost(ctx, scanID, host, startedAt)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				r.logger.WithScanID(scanID).Warn("Dropping host after detail failure",
					"host", host.IP, "error", err)
				return
			}
			details[detail.IP] = detail
		}(host)
	}
	wg.Wait()

	return details, failed
}

// scanHost runs the detail scan for a single host.
func (r *Runner) scanHost(ctx context.Context, scanID string,
	host scanparse.DiscoveredHost, startedAt time.Time) (*scanparse.HostDetail, error) {
	argv, err := executor.SplitTemplate(r.cfg.Phase2Command)
	if err != nil {
		return nil, errors.ErrPhase2HostFailed(host.IP, err)
	}
	argv = executor.SubstitutePorts(argv, host.Ports)

	xmlPath := r.artifactPath("phase2", scanID, host.IP, startedAt)
	argv = append(argv, "-oX", xmlPath, host.IP)

	if err := r.exec.Run(ctx, argv, r.cfg.Phase2Timeout); err != nil {
		return nil, errors.ErrPhase2HostFailed(host.IP, err)
	}
	defer r.cleanupArtifact(xmlPath)

	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, errors.ErrPhase2HostFailed(host.IP, err)
	}
	detail, err := scanparse.ParseDetail(data)
	if err != nil {
		return nil, errors.ErrPhase2HostFailed(host.IP, err)
	}
	if detail == nil {
		return nil, errors.NewSweepErrorWithTarget(errors.CodePhase2HostFailed,
			"Detail report contained no host", host.IP)
	}
	return detail, nil
}

// persist writes the summary document into the results directory.
func (r *Runner) persist(summary *Summary) error {
	if err := os.MkdirAll(r.resultsDir, resultsDirPerm); err != nil {
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to create results directory", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to marshal summary", err)
	}

	name := fmt.Sprintf("sweep_%s_%s.json",
		summary.ScanID, summary.StartedAt.Format(fileTimeLayout))
	path := filepath.Join(r.resultsDir, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, resultsFilePerm); err != nil {
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to write summary", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to replace summary", err)
	}
	return nil
}

// recordHistory appends a ledger entry for the run.
func (r *Runner) recordHistory(summary *Summary, status string) error {
	if r.ledger == nil {
		return nil
	}
	return r.ledger.Append(history.Entry{
		ScanID:             summary.ScanID,
		Timestamp:          summary.CompletedAt,
		NetworkName:        summary.NetworkName,
		NetworkCIDR:        summary.NetworkCIDR,
		HostsDiscovered:    summary.Statistics.Phase1.HostsWithOpenPorts,
		PortsFound:         summary.Statistics.Phase1.TotalOpenPorts,
		ServicesIdentified: summary.Statistics.Phase2.UniqueServices,
		HostsFailed:        summary.Statistics.Phase2.HostsFailed,
		DurationSeconds:    summary.DurationSeconds,
		Status:             status,
	})
}

// recordOutcome records a failed run in the ledger so operators can see it
// through the status surface.
func (r *Runner) recordOutcome(summary *Summary, startedAt time.Time, status string) {
	summary.CompletedAt = time.Now().UTC()
	summary.DurationSeconds = summary.CompletedAt.Sub(startedAt).Seconds()
	if err := r.recordHistory(summary, status); err != nil {
		r.logger.Error("Failed to append sweep history", "error", err)
	}
}

// publish ships measurement points for the run to the configured sink.
func (r *Runner) publish(ctx context.Context, logger *logging.Logger, summary *Summary) {
	if r.publisher == nil {
		return
	}
	points := BuildPoints(r.measurement, summary, time.Now())
	if err := r.publisher.Publish(ctx, points); err != nil {
		r.recordPublish("failure")
		logger.Error("Failed to publish sweep points",
			"error", errors.WrapSweepError(errors.CodePublishFailed,
				"Point delivery failed", err))
		return
	}
	r.recordPublish("success")
}

func (r *Runner) recordPublish(status string) {
	if r.metrics != nil {
		r.metrics.PublishAttempt(status)
	}
}

func (r *Runner) artifactPath(phase, scanID, host string, startedAt time.Time) string {
	ts := startedAt.Format(fileTimeLayout)
	if host != "" {
		return filepath.Join(r.resultsDir,
			fmt.Sprintf("%s_%s_%s_%s.xml", phase, scanID, host, ts))
	}
	return filepath.Join(r.resultsDir, fmt.Sprintf("%s_%s_%s.xml", phase, scanID, ts))
}

func (r *Runner) cleanupArtifact(path string) {
	if r.cfg.KeepXMLFiles {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("Failed to remove scan artifact", "path", path, "error", err)
	}
}

func phase1Stats(hosts []scanparse.DiscoveredHost) Phase1Stats {
	stats := Phase1Stats{HostsWithOpenPorts: len(hosts)}
	for _, host := range hosts {
		stats.TotalOpenPorts += len(host.Ports)
	}
	return stats
}

func phase2Stats(details map[string]*scanparse.HostDetail, failed int) Phase2Stats {
	services := make(map[string]bool)
	for _, detail := range details {
		for _, record := range detail.Ports {
			if record.Name != "" {
				services[record.Name] = true
			}
		}
	}
	list := make([]string, 0, len(services))
	for name := range services {
		list = append(list, name)
	}
	sort.Strings(list)

	return Phase2Stats{
		HostsAnalyzed:  len(details),
		HostsFailed:    failed,
		UniqueServices: len(list),
		ServicesList:   list,
	}
}
