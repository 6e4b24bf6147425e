// Package probe provides quick one-shot scans for interactive use. Unlike
// the two-phase sweep it runs through the nmap library, takes no lock, and
// leaves no trace in the results directory or history.
package probe

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/Ullaakut/nmap/v3"

	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/logging"
)

// Scan kinds supported by the probe.
const (
	KindConnect = "connect"
	KindSYN     = "syn"
	KindVersion = "version"
)

var portSpecPattern = regexp.MustCompile(`^[0-9,\-]+$`)

// Config describes a probe request.
type Config struct {
	Targets    []string
	Ports      string
	Kind       string
	TimeoutSec int
}

// Port is one observed port on a probed host.
type Port struct {
	Number   uint16 `json:"number"`
	Protocol string `json:"protocol"`
	State    string `json:"state"`
	Service  string `json:"service,omitempty"`
	Product  string `json:"product,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Host is one probed host.
type Host struct {
	Address  string `json:"address"`
	Hostname string `json:"hostname,omitempty"`
	Status   string `json:"status"`
	Ports    []Port `json:"ports"`
}

// Result is the outcome of a probe.
type Result struct {
	Hosts    []Host        `json:"hosts"`
	Up       int           `json:"hosts_up"`
	Down     int           `json:"hosts_down"`
	Total    int           `json:"hosts_total"`
	Duration time.Duration `json:"duration"`
}

// Run executes a probe against the configured targets.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	logger := logging.Default().WithComponent("probe")
	logger.Info("Starting probe",
		"kind", cfg.Kind, "targets", len(cfg.Targets), "ports", cfg.Ports)

	if cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	scanner, err := nmap.NewScanner(ctx, buildOptions(cfg)...)
	if err != nil {
		return nil, errors.WrapSweepError(errors.CodeConfiguration,
			"Failed to create scanner", err)
	}

	run, warnings, err := scanner.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.WrapSweepError(errors.CodeTimeout,
				"Probe timed out", err)
		}
		return nil, errors.WrapSweepError(errors.CodePhase1Failed,
			"Probe execution failed", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		logger.Warn("Probe completed with warnings", "warnings", *warnings)
	}

	result := convert(run)
	result.Duration = time.Since(start)
	logger.Info("Probe complete",
		"hosts_up", result.Up, "duration", result.Duration)
	return result, nil
}

// validate checks targets and the port specification before anything runs.
func validate(cfg *Config) error {
	if len(cfg.Targets) == 0 {
		return errors.NewSweepError(errors.CodeTargetInvalid, "No probe targets given")
	}
	for _, target := range cfg.Targets {
		if !validTarget(target) {
			return errors.ErrInvalidTarget(target)
		}
	}
	if cfg.Ports != "" && !portSpecPattern.MatchString(cfg.Ports) {
		return errors.NewSweepError(errors.CodeValidation,
			fmt.Sprintf("Invalid port specification %q", cfg.Ports))
	}
	switch cfg.Kind {
	case KindConnect, KindSYN, KindVersion, "":
		return nil
	default:
		return errors.NewSweepError(errors.CodeValidation,
			fmt.Sprintf("Unknown probe kind %q", cfg.Kind))
	}
}

// validTarget accepts IP addresses, CIDR networks, and hostnames.
func validTarget(target string) bool {
	if target == "" {
		return false
	}
	if net.ParseIP(target) != nil {
		return true
	}
	if _, _, err := net.ParseCIDR(target); err == nil {
		return true
	}
	// Hostname: letters, digits, dots, hyphens.
	for _, r := range target {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return !strings.HasPrefix(target, "-")
}

func buildOptions(cfg *Config) []nmap.Option {
	options := []nmap.Option{
		nmap.WithTargets(cfg.Targets...),
		nmap.WithSkipHostDiscovery(),
		nmap.WithVerbosity(1),
	}
	if cfg.Ports != "" {
		options = append(options, nmap.WithPorts(cfg.Ports))
	}

	switch cfg.Kind {
	case KindSYN:
		options = append(options, nmap.WithSYNScan())
	case KindVersion:
		options = append(options,
			nmap.WithServiceInfo(),
			nmap.WithVersionAll(),
		)
	default:
		options = append(options, nmap.WithConnectScan())
	}
	return options
}

func convert(run *nmap.Run) *Result {
	result := &Result{
		Up:    run.Stats.Hosts.Up,
		Down:  run.Stats.Hosts.Down,
		Total: run.Stats.Hosts.Total,
		Hosts: make([]Host, 0, len(run.Hosts)),
	}

	for i := range run.Hosts {
		h := &run.Hosts[i]
		if len(h.Addresses) == 0 {
			continue
		}

		host := Host{
			Address: h.Addresses[0].Addr,
			Status:  h.Status.State,
			Ports:   make([]Port, 0, len(h.Ports)),
		}
		if len(h.Hostnames) > 0 {
			host.Hostname = h.Hostnames[0].Name
		}

		for j := range h.Ports {
			p := &h.Ports[j]
			host.Ports = append(host.Ports, Port{
				Number:   p.ID,
				Protocol: p.Protocol,
				State:    p.State.State,
				Service:  p.Service.Name,
				Product:  p.Service.Product,
				Version:  p.Service.Version,
			})
		}
		result.Hosts = append(result.Hosts, host)
	}
	return result
}
