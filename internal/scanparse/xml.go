// Package scanparse converts raw nmap XML reports into netsweep's canonical
// result model. It understands exactly the subset of the nmaprun document
// the two sweep phases produce.
package scanparse

import "encoding/xml"

type nmapRun struct {
	XMLName xml.Name  `xml:"nmaprun"`
	Hosts   []xmlHost `xml:"host"`
}

type xmlHost struct {
	Addresses []xmlAddress `xml:"address"`
	Hostnames xmlHostnames `xml:"hostnames"`
	Ports     xmlPorts     `xml:"ports"`
	OS        xmlOS        `xml:"os"`
}

type xmlAddress struct {
	Addr     string `xml:"addr,attr"`
	AddrType string `xml:"addrtype,attr"`
}

type xmlHostnames struct {
	Names []xmlHostname `xml:"hostname"`
}

type xmlHostname struct {
	Name string `xml:"name,attr"`
}

type xmlPorts struct {
	Ports []xmlPort `xml:"port"`
}

type xmlPort struct {
	Protocol string      `xml:"protocol,attr"`
	PortID   int         `xml:"portid,attr"`
	State    xmlState    `xml:"state"`
	Service  xmlService  `xml:"service"`
	Scripts  []xmlScript `xml:"script"`
}

type xmlState struct {
	State string `xml:"state,attr"`
}

type xmlService struct {
	Name      string `xml:"name,attr"`
	Product   string `xml:"product,attr"`
	Version   string `xml:"version,attr"`
	ExtraInfo string `xml:"extrainfo,attr"`
	Tunnel    string `xml:"tunnel,attr"`
	Method    string `xml:"method,attr"`
}

type xmlScript struct {
	ID     string `xml:"id,attr"`
	Output string `xml:"output,attr"`
}

type xmlOS struct {
	Matches []xmlOSMatch `xml:"osmatch"`
}

type xmlOSMatch struct {
	Name     string `xml:"name,attr"`
	Accuracy string `xml:"accuracy,attr"`
}

// address returns the host's IP address, preferring IPv4 over IPv6.
// Hosts carrying only a MAC address yield an empty string.
func (h *xmlHost) address() string {
	var v6 string
	for _, addr := range h.Addresses {
		switch addr.AddrType {
		case "ipv4":
			return addr.Addr
		case "ipv6":
			if v6 == "" {
				v6 = addr.Addr
			}
		}
	}
	return v6
}

// hostname returns the first reported hostname, if any.
func (h *xmlHost) hostname() string {
	if len(h.Hostnames.Names) > 0 {
		return h.Hostnames.Names[0].Name
	}
	return ""
}
