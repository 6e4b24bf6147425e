package scanparse

import "time"

// DiscoveredHost is a discovery-phase result: an address and its open ports.
type DiscoveredHost struct {
	IP    string `json:"ip"`
	Ports []int  `json:"ports"`
}

// ServiceRecord describes a single identified service on a host port.
type ServiceRecord struct {
	Port      int               `json:"port"`
	Protocol  string            `json:"protocol"`
	State     string            `json:"state"`
	Name      string            `json:"service_name"`
	Product   string            `json:"product,omitempty"`
	Version   string            `json:"version,omitempty"`
	ExtraInfo string            `json:"extra_info,omitempty"`
	Tunnel    string            `json:"tunnel,omitempty"`
	Method    string            `json:"method,omitempty"`
	Scripts   map[string]string `json:"scripts,omitempty"`
}

// HostDetail is the detail-phase result for a single host. Ports are keyed
// by "port/protocol", e.g. "443/tcp".
type HostDetail struct {
	IP        string                   `json:"ip"`
	Hostname  string                   `json:"hostname,omitempty"`
	Ports     map[string]ServiceRecord `json:"ports"`
	OSGuesses map[string]string        `json:"os_guesses,omitempty"`
	ScanTime  time.Time                `json:"scan_time"`
}
