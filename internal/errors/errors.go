// Package errors provides structured error handling for netsweep operations.
// It defines error codes, error types, and provides utilities for creating
// and handling errors with context and structured information.
package errors

import (
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeConflict      ErrorCode = "CONFLICT"

	// Sweep execution errors.
	CodeTargetInvalid    ErrorCode = "TARGET_INVALID"
	CodeLockHeld         ErrorCode = "LOCK_HELD"
	CodePhase1Failed     ErrorCode = "PHASE1_FAILED"
	CodePhase2HostFailed ErrorCode = "PHASE2_HOST_FAILED"
	CodeParseFailed      ErrorCode = "PARSE_FAILED"

	// Persistence and publishing errors.
	CodePersistFailed   ErrorCode = "PERSIST_FAILED"
	CodePublishFailed   ErrorCode = "PUBLISH_FAILED"
	CodeRegistryCorrupt ErrorCode = "REGISTRY_CORRUPT"

	// Metrics sink failure classes.
	CodeSinkUnreachable ErrorCode = "SINK_UNREACHABLE"
	CodeSinkAuth        ErrorCode = "SINK_AUTH_REJECTED"
	CodeSinkServer      ErrorCode = "SINK_SERVER_ERROR"
)

// SweepError represents an error that occurred while running a sweep.
type SweepError struct {
	Code    ErrorCode
	Message string
	Target  string
	ScanID  string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *SweepError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *SweepError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *SweepError) WithContext(key string, value interface{}) *SweepError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithScanID tags the error with the run it belongs to.
func (e *SweepError) WithScanID(scanID string) *SweepError {
	e.ScanID = scanID
	return e
}

// NewSweepError creates a new sweep error with the specified code and message.
func NewSweepError(code ErrorCode, message string) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewSweepErrorWithTarget creates a sweep error for a specific target.
func NewSweepErrorWithTarget(code ErrorCode, message, target string) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Target:  target,
		Context: make(map[string]interface{}),
	}
}

// WrapSweepError wraps an existing error as a sweep error.
func WrapSweepError(code ErrorCode, message string, err error) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// WrapSweepErrorWithTarget wraps an error with target information.
func WrapSweepErrorWithTarget(code ErrorCode, message, target string, err error) *SweepError {
	return &SweepError{
		Code:    code,
		Message: message,
		Target:  target,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// RegistryError represents network-registry errors.
type RegistryError struct {
	Code    ErrorCode
	Message string
	Network string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Network != "" {
		return fmt.Sprintf("[%s] %s (network: %s)", e.Code, e.Message, e.Network)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// NewRegistryError creates a new registry error.
func NewRegistryError(code ErrorCode, message string) *RegistryError {
	return &RegistryError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewRegistryErrorWithNetwork creates a registry error for a named network.
func NewRegistryErrorWithNetwork(code ErrorCode, message, network string) *RegistryError {
	return &RegistryError{
		Code:    code,
		Message: message,
		Network: network,
		Context: make(map[string]interface{}),
	}
}

// WrapRegistryError wraps an existing error as a registry error.
func WrapRegistryError(code ErrorCode, message string, err error) *RegistryError {
	return &RegistryError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// SinkError represents metrics-sink delivery errors.
type SinkError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *SinkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *SinkError) Unwrap() error {
	return e.Cause
}

// NewSinkError creates a new sink error.
func NewSinkError(code ErrorCode, message string) *SinkError {
	return &SinkError{
		Code:    code,
		Message: message,
	}
}

// NewSinkStatusError creates a sink error carrying an HTTP status code.
func NewSinkStatusError(code ErrorCode, message string, status int) *SinkError {
	return &SinkError{
		Code:       code,
		Message:    message,
		StatusCode: status,
	}
}

// WrapSinkError wraps an existing error as a sink error.
func WrapSinkError(code ErrorCode, message string, err error) *SinkError {
	return &SinkError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
	}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	switch e := err.(type) {
	case *SweepError:
		return e.Code == code
	case *RegistryError:
		return e.Code == code
	case *SinkError:
		return e.Code == code
	case *ConfigError:
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error if it has one.
func GetCode(err error) ErrorCode {
	switch e := err.(type) {
	case *SweepError:
		return e.Code
	case *RegistryError:
		return e.Code
	case *SinkError:
		return e.Code
	case *ConfigError:
		return e.Code
	}
	return CodeUnknown
}

// IsNotFound reports whether the error is a not-found condition.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsBusy reports whether the error means another run already holds the lock.
func IsBusy(err error) bool {
	return IsCode(err, CodeLockHeld)
}

// IsRetryable determines if an error indicates a retryable condition.
func IsRetryable(err error) bool {
	code := GetCode(err)
	switch code {
	case CodeTimeout, CodeSinkUnreachable, CodeSinkServer:
		return true
	default:
		return false
	}
}

// Common error creation functions

// ErrInvalidTarget creates an error for invalid sweep targets.
func ErrInvalidTarget(target string) *SweepError {
	return NewSweepErrorWithTarget(CodeTargetInvalid, "Invalid target specification", target)
}

// ErrLockHeld creates an error for a lock held by another run.
func ErrLockHeld(holder string) *SweepError {
	return NewSweepError(CodeLockHeld, "Another sweep is already running").
		WithContext("holder", holder)
}

// ErrPhase1Failed creates an error for discovery-phase failures.
func ErrPhase1Failed(target string, err error) *SweepError {
	return WrapSweepErrorWithTarget(CodePhase1Failed, "Discovery phase failed", target, err)
}

// ErrPhase2HostFailed creates an error for a single failed detail-phase host.
func ErrPhase2HostFailed(host string, err error) *SweepError {
	return WrapSweepErrorWithTarget(CodePhase2HostFailed, "Detail phase failed for host", host, err)
}

// ErrNetworkNotFound creates an error for unknown registry networks.
func ErrNetworkNotFound(name string) *RegistryError {
	return NewRegistryErrorWithNetwork(CodeNotFound, "Network not registered", name)
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}

// ErrConfigMissing creates an error for missing required configuration.
func ErrConfigMissing(field string) *ConfigError {
	return NewConfigFieldError(CodeConfiguration, "Required configuration field missing", field, nil)
}
