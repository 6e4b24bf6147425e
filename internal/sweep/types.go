package sweep

import (
	"time"

	"github.com/netsweep/netsweep/internal/scanparse"
)

// Target selects what a run sweeps: a registered network by name, or an
// ad-hoc CIDR. Exactly one of the fields must be set.
type Target struct {
	Name string `json:"name,omitempty"`
	CIDR string `json:"cidr,omitempty"`
}

// ManualNetworkName tags runs against an ad-hoc CIDR that is not in the
// registry.
const ManualNetworkName = "manual"

// Phase1Stats summarizes the discovery phase.
type Phase1Stats struct {
	HostsWithOpenPorts int `json:"hosts_with_open_ports"`
	TotalOpenPorts     int `json:"total_open_ports"`
}

// Phase2Stats summarizes the detail phase.
type Phase2Stats struct {
	HostsAnalyzed  int      `json:"hosts_analyzed"`
	HostsFailed    int      `json:"hosts_failed"`
	UniqueServices int      `json:"unique_services"`
	ServicesList   []string `json:"services_list"`
}

// Statistics aggregates both phases of a run.
type Statistics struct {
	Phase1 Phase1Stats `json:"phase1"`
	Phase2 Phase2Stats `json:"phase2"`
}

// Results holds the normalized outputs of both phases. Phase2Detailed is
// keyed by host IP.
type Results struct {
	Phase1Summary  []scanparse.DiscoveredHost       `json:"phase1_summary"`
	Phase2Detailed map[string]*scanparse.HostDetail `json:"phase2_detailed"`
}

// Summary is the canonical record of one completed run. It is what gets
// persisted to the results directory and summarized into the history
// ledger.
type Summary struct {
	ScanID          string     `json:"scan_id"`
	NetworkName     string     `json:"network_name"`
	NetworkCIDR     string     `json:"network_cidr"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     time.Time  `json:"completed_at"`
	DurationSeconds float64    `json:"duration_seconds"`
	Statistics      Statistics `json:"statistics"`
	Results         Results    `json:"results"`
}

// TotalPorts returns the number of open ports found during discovery.
func (s *Summary) TotalPorts() int {
	return s.Statistics.Phase1.TotalOpenPorts
}
