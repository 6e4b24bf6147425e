// Package registry manages the catalog of target networks. Networks are
// kept in a single JSON document on disk; every mutation rewrites the
// document atomically so a crash can never leave it half-written.
package registry

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/logging"
)

const (
	registryDirPerm  = 0750
	registryFilePerm = 0600

	documentVersion = 1
)

// Network is one registered target network.
type Network struct {
	Name        string     `json:"name"`
	CIDR        string     `json:"cidr"`
	Description string     `json:"description,omitempty"`
	Enabled     bool       `json:"enabled"`
	Created     time.Time  `json:"created"`
	LastScan    *time.Time `json:"last_scan,omitempty"`
	ScanCount   int        `json:"scan_count"`
}

// document is the on-disk registry layout.
type document struct {
	Version  int                 `json:"version"`
	Created  time.Time           `json:"created"`
	Networks map[string]*Network `json:"networks"`
}

// Registry is the persistent network catalog.
type Registry struct {
	path string
	mu   sync.Mutex
}

// New creates a registry backed by the given file. The file is created
// lazily on the first mutation.
func New(path string) *Registry {
	return &Registry{path: path}
}

// Add registers a network under the given name. The CIDR is canonicalized
// to its network address; a malformed CIDR is rejected. Adding over an
// existing name replaces it with a warning.
func (r *Registry) Add(name, cidr, description string) (*Network, error) {
	if name == "" {
		return nil, errors.NewRegistryError(errors.CodeValidation, "Network name is required")
	}
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, errors.WrapRegistryError(errors.CodeValidation,
			fmt.Sprintf("Invalid CIDR %q", cidr), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	if _, exists := doc.Networks[name]; exists {
		logging.Warn("Replacing existing network registration", "network", name)
	}

	network := &Network{
		Name:        name,
		CIDR:        ipNet.String(),
		Description: description,
		Enabled:     true,
		Created:     time.Now().UTC(),
	}
	doc.Networks[name] = network

	if err := r.store(doc); err != nil {
		return nil, err
	}
	logging.InfoRegistry("Network registered", "network", name, "cidr", network.CIDR)
	return network, nil
}

// Remove deletes a network registration.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	if _, exists := doc.Networks[name]; !exists {
		return errors.ErrNetworkNotFound(name)
	}
	delete(doc.Networks, name)
	if err := r.store(doc); err != nil {
		return err
	}
	logging.InfoRegistry("Network removed", "network", name)
	return nil
}

// Get returns a single network by name.
func (r *Registry) Get(name string) (*Network, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	network, exists := doc.Networks[name]
	if !exists {
		return nil, errors.ErrNetworkNotFound(name)
	}
	return network, nil
}

// SetEnabled flips a network's enabled flag.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	network, exists := doc.Networks[name]
	if !exists {
		return errors.ErrNetworkNotFound(name)
	}
	network.Enabled = enabled
	return r.store(doc)
}

// RecordScanStarted stamps the network with the current time and bumps its
// scan counter. Unknown names are a no-op so manual CIDR sweeps never fail
// registry bookkeeping.
func (r *Registry) RecordScanStarted(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	network, exists := doc.Networks[name]
	if !exists {
		return nil
	}
	now := time.Now().UTC()
	network.LastScan = &now
	network.ScanCount++
	return r.store(doc)
}

// List returns all registered networks sorted by name.
func (r *Registry) List() []*Network {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortNetworks(r.load().Networks, false)
}

// ListEnabled returns the enabled networks sorted by name.
func (r *Registry) ListEnabled() []*Network {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortNetworks(r.load().Networks, true)
}

func sortNetworks(networks map[string]*Network, enabledOnly bool) []*Network {
	result := make([]*Network, 0, len(networks))
	for _, network := range networks {
		if enabledOnly && !network.Enabled {
			continue
		}
		result = append(result, network)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// load reads the registry document. A missing file yields a fresh empty
// document. A corrupt file is logged and replaced with defaults; the
// registry recovers rather than failing the caller.
func (r *Registry) load() *document {
	doc := &document{
		Version:  documentVersion,
		Created:  time.Now().UTC(),
		Networks: make(map[string]*Network),
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.ErrorRegistry("Failed to read registry, reinitializing", err,
				"path", r.path)
		}
		return doc
	}

	var loaded document
	if err := json.Unmarshal(data, &loaded); err != nil {
		logging.ErrorRegistry("Registry document is corrupt, reinitializing",
			errors.WrapRegistryError(errors.CodeRegistryCorrupt, "unparseable registry", err),
			"path", r.path)
		return doc
	}
	if loaded.Networks == nil {
		loaded.Networks = make(map[string]*Network)
	}
	return &loaded
}

// store writes the full document to a temp file and renames it into place.
func (r *Registry) store(doc *document) error {
	if err := os.MkdirAll(filepath.Dir(r.path), registryDirPerm); err != nil {
		return errors.WrapRegistryError(errors.CodePersistFailed,
			"Failed to create registry directory", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WrapRegistryError(errors.CodePersistFailed,
			"Failed to marshal registry", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, registryFilePerm); err != nil {
		return errors.WrapRegistryError(errors.CodePersistFailed,
			"Failed to write registry", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return errors.WrapRegistryError(errors.CodePersistFailed,
			"Failed to replace registry", err)
	}
	return nil
}
