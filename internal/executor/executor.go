// Package executor runs external nmap commands for the two sweep phases.
// Commands are described by whitespace-separated templates from the
// configuration; the executor appends XML output and target arguments,
// enforces timeouts, and maps failures to typed errors.
package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Stderr captured from a failed command is capped so a noisy scan cannot
// bloat log output or history documents.
const maxStderrBytes = 4096

// ErrTimeout reports that a command exceeded its deadline.
var ErrTimeout = stderrors.New("command timed out")

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command exited with code %d: %s", e.Code, e.Stderr)
	}
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// SpawnError reports a command that could not be started at all.
type SpawnError struct {
	Cause error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start command: %v", e.Cause)
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// Executor runs a command line to completion. Implementations must honor
// the context and the timeout, whichever expires first.
type Executor interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) error
}

// OSExecutor shells out via os/exec.
type OSExecutor struct{}

// New returns the default executor.
func New() *OSExecutor {
	return &OSExecutor{}
}

// Run executes argv[0] with the remaining arguments. A deadline hit yields
// ErrTimeout, a non-zero exit yields *ExitError with captured stderr, and
// a start failure yields *SpawnError.
func (e *OSExecutor) Run(ctx context.Context, argv []string, timeout time.Duration) error {
	if len(argv) == 0 {
		return &SpawnError{Cause: stderrors.New("empty command")}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if runCtx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return &ExitError{
			Code:   exitErr.ExitCode(),
			Stderr: truncate(stderr.String()),
		}
	}
	return &SpawnError{Cause: err}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrBytes {
		return s[:maxStderrBytes]
	}
	return s
}

// SplitTemplate breaks a command template into argv form.
func SplitTemplate(template string) ([]string, error) {
	argv := strings.Fields(template)
	if len(argv) == 0 {
		return nil, stderrors.New("empty command template")
	}
	return argv, nil
}

// SubstitutePorts replaces the {ports} placeholder in each template token
// with a comma-joined port list.
func SubstitutePorts(argv []string, ports []int) []string {
	specs := make([]string, len(ports))
	for i, port := range ports {
		specs[i] = strconv.Itoa(port)
	}
	portList := strings.Join(specs, ",")

	result := make([]string, len(argv))
	for i, token := range argv {
		result[i] = strings.ReplaceAll(token, "{ports}", portList)
	}
	return result
}
