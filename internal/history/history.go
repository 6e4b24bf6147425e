// Package history maintains the bounded ledger of completed sweep runs.
// The ledger is a single JSON document holding the most recent entries,
// newest first, rewritten atomically on every append.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/netsweep/netsweep/internal/logging"
)

const (
	historyDirPerm  = 0750
	historyFilePerm = 0600
)

// Entry is one completed run in the ledger.
type Entry struct {
	ScanID             string    `json:"scan_id"`
	Timestamp          time.Time `json:"timestamp"`
	NetworkName        string    `json:"network_name"`
	NetworkCIDR        string    `json:"network_cidr"`
	HostsDiscovered    int       `json:"hosts_discovered"`
	PortsFound         int       `json:"ports_found"`
	ServicesIdentified int       `json:"services_identified"`
	HostsFailed        int       `json:"hosts_failed"`
	DurationSeconds    float64   `json:"duration_seconds"`
	Status             string    `json:"status"`
}

// Ledger persists run entries to a JSON file with a fixed capacity.
type Ledger struct {
	path string
	max  int
	mu   sync.Mutex
}

// New creates a ledger backed by the given file, keeping at most max entries.
func New(path string, max int) *Ledger {
	return &Ledger{path: path, max: max}
}

// Append records a run and truncates the ledger to capacity. The document
// is replaced atomically so readers never observe a partial write.
func (l *Ledger) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.load()
	entries = append([]Entry{entry}, entries...)
	if len(entries) > l.max {
		entries = entries[:l.max]
	}
	return l.store(entries)
}

// List returns the ledger contents, newest first.
func (l *Ledger) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Latest returns the most recent entry, or nil when the ledger is empty.
func (l *Ledger) Latest() *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.load()
	if len(entries) == 0 {
		return nil
	}
	return &entries[0]
}

// load reads the ledger document. A missing or corrupt file yields an
// empty ledger; corruption is logged and healed on the next append.
func (l *Ledger) load() []Entry {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Failed to read sweep history, starting empty",
				"path", l.path, "error", err)
		}
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.Warn("Sweep history is corrupt, starting empty",
			"path", l.path, "error", err)
		return nil
	}
	return entries
}

// store writes the full document to a temp file and renames it into place.
func (l *Ledger) store(entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), historyDirPerm); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, historyFilePerm); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}
