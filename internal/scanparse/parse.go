package scanparse

import (
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/netsweep/netsweep/internal/logging"
)

// ParseDiscovery extracts discovered hosts from a discovery-phase report.
// Hosts without a usable IP address or without open ports are omitted.
// Port lists are sorted ascending and deduplicated. Document order of the
// hosts is preserved. Malformed input is logged and yields an empty result,
// so callers treat garbage the same as an empty network.
func ParseDiscovery(data []byte) []DiscoveredHost {
	var run nmapRun
	if err := xml.Unmarshal(data, &run); err != nil {
		logging.Error("Failed to parse discovery report", "error", err)
		return nil
	}

	hosts := make([]DiscoveredHost, 0, len(run.Hosts))
	for i := range run.Hosts {
		host := &run.Hosts[i]
		ip := host.address()
		if ip == "" {
			continue
		}

		seen := make(map[int]bool)
		var ports []int
		for _, port := range host.Ports.Ports {
			if port.State.State != "open" || seen[port.PortID] {
				continue
			}
			seen[port.PortID] = true
			ports = append(ports, port.PortID)
		}
		if len(ports) == 0 {
			continue
		}
		sort.Ints(ports)

		hosts = append(hosts, DiscoveredHost{IP: ip, Ports: ports})
	}
	return hosts
}

// ParseDetail extracts a single host's service details from a detail-phase
// report. Detail reports target one host; if the document unexpectedly
// carries several, the last one wins. Returns nil when the report contains
// no usable host.
func ParseDetail(data []byte) (*HostDetail, error) {
	var run nmapRun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse detail report: %w", err)
	}

	var detail *HostDetail
	for i := range run.Hosts {
		host := &run.Hosts[i]
		ip := host.address()
		if ip == "" {
			continue
		}

		d := &HostDetail{
			IP:       ip,
			Hostname: host.hostname(),
			Ports:    make(map[string]ServiceRecord),
			ScanTime: time.Now().UTC(),
		}

		for _, port := range host.Ports.Ports {
			record := ServiceRecord{
				Port:      port.PortID,
				Protocol:  port.Protocol,
				State:     port.State.State,
				Name:      port.Service.Name,
				Product:   port.Service.Product,
				Version:   port.Service.Version,
				ExtraInfo: port.Service.ExtraInfo,
				Tunnel:    port.Service.Tunnel,
				Method:    port.Service.Method,
			}
			if len(port.Scripts) > 0 {
				record.Scripts = make(map[string]string, len(port.Scripts))
				for _, script := range port.Scripts {
					record.Scripts[script.ID] = script.Output
				}
			}
			key := fmt.Sprintf("%d/%s", port.PortID, port.Protocol)
			d.Ports[key] = record
		}

		if len(host.OS.Matches) > 0 {
			d.OSGuesses = make(map[string]string, len(host.OS.Matches))
			for _, match := range host.OS.Matches {
				d.OSGuesses[match.Name] = match.Accuracy
			}
		}

		detail = d
	}
	return detail, nil
}
