// Package lockfile implements the single-flight sweep lock. The lock is an
// advisory file containing "pid:scan_id"; acquisition is non-blocking and a
// held lock is reclaimed only when its owner is provably gone.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/logging"
)

const (
	lockDirPerm  = 0750
	lockFilePerm = 0600

	// A lock older than this is considered abandoned even if a process
	// with the recorded pid still exists (pid reuse).
	defaultStaleAfter = 24 * time.Hour
)

// Holder describes the current owner of the lock.
type Holder struct {
	PID    int
	ScanID string
	Age    time.Duration
}

// Lock is a file-based advisory lock for sweep runs.
type Lock struct {
	path       string
	staleAfter time.Duration
}

// New creates a lock at the given path with the default staleness window.
func New(path string) *Lock {
	return &Lock{path: path, staleAfter: defaultStaleAfter}
}

// NewWithStaleness creates a lock with a custom staleness window.
func NewWithStaleness(path string, staleAfter time.Duration) *Lock {
	return &Lock{path: path, staleAfter: staleAfter}
}

// Acquire attempts to take the lock for the given run. It never blocks:
// a live lock yields a LOCK_HELD error immediately, a stale lock is
// reclaimed and acquisition retried once.
func (l *Lock) Acquire(scanID string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), lockDirPerm); err != nil {
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to create lock directory", err)
	}

	if err := l.tryCreate(scanID); err == nil {
		return nil
	} else if !os.IsExist(err) {
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to create lock file", err)
	}

	holder, err := l.Inspect()
	if err != nil {
		// Unreadable lock file: treat as stale and reclaim.
		logging.Warn("Removing unreadable lock file", "path", l.path, "error", err)
		os.Remove(l.path)
	} else if holder == nil {
		// Raced with a release, retry below.
	} else if l.isStale(holder) {
		logging.Warn("Reclaiming stale sweep lock",
			"pid", holder.PID, "scan_id", holder.ScanID, "age", holder.Age)
		os.Remove(l.path)
	} else {
		return errors.ErrLockHeld(fmt.Sprintf("%d:%s", holder.PID, holder.ScanID))
	}

	if err := l.tryCreate(scanID); err != nil {
		if os.IsExist(err) {
			return errors.ErrLockHeld("unknown")
		}
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to create lock file", err)
	}
	return nil
}

// Release removes the lock file. Releasing an absent lock is not an error.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.WrapSweepError(errors.CodePersistFailed,
			"Failed to remove lock file", err)
	}
	return nil
}

// Inspect reports the current holder, or nil when the lock is free.
func (l *Lock) Inspect() (*Holder, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	pid, scanID, err := parseContent(string(data))
	if err != nil {
		return nil, err
	}

	holder := &Holder{PID: pid, ScanID: scanID}
	if info, err := os.Stat(l.path); err == nil {
		holder.Age = time.Since(info.ModTime())
	}
	return holder, nil
}

func (l *Lock) tryCreate(scanID string) error {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockFilePerm)
	if err != nil {
		return err
	}
	_, writeErr := fmt.Fprintf(file, "%d:%s", os.Getpid(), scanID)
	closeErr := file.Close()
	if writeErr != nil {
		os.Remove(l.path)
		return writeErr
	}
	return closeErr
}

// isStale reports whether a holder can be reclaimed: its process no longer
// exists, or the lock exceeded the staleness window.
func (l *Lock) isStale(holder *Holder) bool {
	if holder.Age > l.staleAfter {
		return true
	}
	return !pidAlive(holder.PID)
}

// pidAlive probes a process with signal 0.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return err == unix.EPERM
}

func parseContent(content string) (pid int, scanID string, err error) {
	parts := strings.SplitN(strings.TrimSpace(content), ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("malformed lock content %q", content)
	}
	pid, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("malformed lock pid %q: %w", parts[0], err)
	}
	return pid, parts[1], nil
}
