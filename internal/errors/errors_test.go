package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeTimeout,
		CodeCanceled,
		CodeNotFound,
		CodeConflict,
		CodeTargetInvalid,
		CodeLockHeld,
		CodePhase1Failed,
		CodePhase2HostFailed,
		CodeParseFailed,
		CodePersistFailed,
		CodePublishFailed,
		CodeRegistryCorrupt,
		CodeSinkUnreachable,
		CodeSinkAuth,
		CodeSinkServer,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("Error code %v should not be empty", code)
		}
		if seen[code] {
			t.Errorf("Duplicate error code %v", code)
		}
		seen[code] = true
	}
}

func TestSweepError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := NewSweepError(CodePhase1Failed, "discovery failed")

		expected := "[PHASE1_FAILED] discovery failed"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
		if err.Unwrap() != nil {
			t.Error("Basic error should have no cause")
		}
	})

	t.Run("error with target", func(t *testing.T) {
		err := NewSweepErrorWithTarget(CodeTargetInvalid, "bad target", "192.168.1.0/33")

		expected := "[TARGET_INVALID] bad target (target: 192.168.1.0/33)"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("wrapped error", func(t *testing.T) {
		cause := fmt.Errorf("exit status 1")
		err := WrapSweepError(CodePhase1Failed, "nmap failed", cause)

		if !errors.Is(err, cause) {
			t.Error("Wrapped error should match its cause via errors.Is")
		}
		if err.Unwrap() != cause {
			t.Error("Unwrap should return the original cause")
		}
	})

	t.Run("with context and scan id", func(t *testing.T) {
		err := NewSweepError(CodeLockHeld, "busy").
			WithContext("holder", "1234:cafe0001").
			WithScanID("deadbeef")

		if err.Context["holder"] != "1234:cafe0001" {
			t.Errorf("Expected context holder, got %v", err.Context["holder"])
		}
		if err.ScanID != "deadbeef" {
			t.Errorf("Expected scan id deadbeef, got %s", err.ScanID)
		}
	})
}

func TestRegistryError(t *testing.T) {
	t.Run("with network", func(t *testing.T) {
		err := NewRegistryErrorWithNetwork(CodeNotFound, "network not registered", "lab")

		expected := "[NOT_FOUND] network not registered (network: lab)"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := fmt.Errorf("unexpected end of JSON input")
		err := WrapRegistryError(CodeRegistryCorrupt, "registry document unreadable", cause)

		if !errors.Is(err, cause) {
			t.Error("Wrapped registry error should match its cause")
		}
	})
}

func TestSinkError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := NewSinkStatusError(CodeSinkAuth, "token rejected", 401)

		expected := "[SINK_AUTH_REJECTED] token rejected (status: 401)"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("without status code", func(t *testing.T) {
		err := NewSinkError(CodeSinkUnreachable, "connection refused")

		expected := "[SINK_UNREACHABLE] connection refused"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := fmt.Errorf("dial tcp: connection refused")
		err := WrapSinkError(CodeSinkUnreachable, "write failed", cause)

		if !errors.Is(err, cause) {
			t.Error("Wrapped sink error should match its cause")
		}
	})
}

func TestConfigError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := NewConfigFieldError(CodeValidation, "invalid value", "sweep.concurrent_scans", -1)

		expected := "[VALIDATION] invalid value (field: sweep.concurrent_scans)"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
		if err.Value != -1 {
			t.Errorf("Expected value -1, got %v", err.Value)
		}
	})

	t.Run("without field", func(t *testing.T) {
		err := NewConfigError(CodeConfiguration, "config unreadable")

		expected := "[CONFIGURATION] config unreadable"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
	})
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  ErrorCode
		match bool
	}{
		{"sweep error match", NewSweepError(CodeLockHeld, "busy"), CodeLockHeld, true},
		{"sweep error mismatch", NewSweepError(CodeLockHeld, "busy"), CodePhase1Failed, false},
		{"registry error match", NewRegistryError(CodeNotFound, "missing"), CodeNotFound, true},
		{"sink error match", NewSinkError(CodeSinkServer, "boom"), CodeSinkServer, true},
		{"config error match", NewConfigError(CodeValidation, "bad"), CodeValidation, true},
		{"plain error", fmt.Errorf("plain"), CodeUnknown, false},
		{"nil error", nil, CodeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.match {
				t.Errorf("IsCode(%v, %v) = %v, want %v", tt.err, tt.code, got, tt.match)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"sweep error", NewSweepError(CodePhase1Failed, "x"), CodePhase1Failed},
		{"registry error", NewRegistryError(CodeRegistryCorrupt, "x"), CodeRegistryCorrupt},
		{"sink error", NewSinkError(CodeSinkAuth, "x"), CodeSinkAuth},
		{"config error", NewConfigError(CodeConfiguration, "x"), CodeConfiguration},
		{"plain error", fmt.Errorf("plain"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode(%v) = %v, want %v", tt.err, got, tt.code)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(ErrNetworkNotFound("lab")) {
		t.Error("ErrNetworkNotFound should satisfy IsNotFound")
	}
	if !IsBusy(ErrLockHeld("1234:cafe0001")) {
		t.Error("ErrLockHeld should satisfy IsBusy")
	}
	if IsBusy(NewSweepError(CodePhase1Failed, "x")) {
		t.Error("Phase1 failure should not satisfy IsBusy")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"timeout", NewSweepError(CodeTimeout, "slow"), true},
		{"sink unreachable", NewSinkError(CodeSinkUnreachable, "down"), true},
		{"sink server error", NewSinkStatusError(CodeSinkServer, "oops", 500), true},
		{"sink auth", NewSinkStatusError(CodeSinkAuth, "denied", 401), false},
		{"target invalid", NewSweepError(CodeTargetInvalid, "bad"), false},
		{"plain error", fmt.Errorf("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestCommonConstructors(t *testing.T) {
	t.Run("invalid target", func(t *testing.T) {
		err := ErrInvalidTarget("not-a-cidr")
		if err.Code != CodeTargetInvalid {
			t.Errorf("Expected code %s, got %s", CodeTargetInvalid, err.Code)
		}
		if err.Target != "not-a-cidr" {
			t.Errorf("Expected target carried through, got %s", err.Target)
		}
	})

	t.Run("lock held", func(t *testing.T) {
		err := ErrLockHeld("4242:feedface")
		if err.Code != CodeLockHeld {
			t.Errorf("Expected code %s, got %s", CodeLockHeld, err.Code)
		}
		if err.Context["holder"] != "4242:feedface" {
			t.Errorf("Expected holder in context, got %v", err.Context["holder"])
		}
	})

	t.Run("phase failures carry cause", func(t *testing.T) {
		cause := fmt.Errorf("exit status 137")

		p1 := ErrPhase1Failed("192.168.1.0/24", cause)
		if !errors.Is(p1, cause) {
			t.Error("Phase1 error should wrap its cause")
		}

		p2 := ErrPhase2HostFailed("192.168.1.10", cause)
		if p2.Code != CodePhase2HostFailed || p2.Target != "192.168.1.10" {
			t.Errorf("Unexpected phase2 host error: %v", p2)
		}
	})

	t.Run("config constructors", func(t *testing.T) {
		invalid := ErrConfigInvalid("influx.url", "not-a-url")
		if invalid.Code != CodeValidation || invalid.Field != "influx.url" {
			t.Errorf("Unexpected config invalid error: %v", invalid)
		}

		missing := ErrConfigMissing("influx.token")
		if missing.Code != CodeConfiguration || missing.Field != "influx.token" {
			t.Errorf("Unexpected config missing error: %v", missing)
		}
	})
}
