package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected string
	}{
		{"debug level", LevelDebug, "debug"},
		{"info level", LevelInfo, "info"},
		{"warn level", LevelWarn, "warn"},
		{"error level", LevelError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.level) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.level))
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level %s, got %s", LevelInfo, cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Expected default format %s, got %s", FormatText, cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got '%s'", cfg.Output)
	}
	if cfg.AddSource {
		t.Error("Expected AddSource to be false by default")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stdout text logger", func(t *testing.T) {
		logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: "stdout"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}
	})

	t.Run("stderr json logger", func(t *testing.T) {
		logger, err := New(Config{Level: LevelError, Format: FormatJSON, Output: "stderr"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}
	})

	t.Run("file logger creates parent directory", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "netsweep.log")

		logger, err := New(Config{Level: LevelDebug, Format: FormatText, Output: logFile})
		if err != nil {
			t.Fatalf("Failed to create file logger: %v", err)
		}

		logger.Info("file logger test")

		data, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("Failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "file logger test") {
			t.Errorf("Log file missing expected message, got: %s", string(data))
		}
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")

		logger, err := New(Config{Level: "nonsense", Format: FormatText, Output: logFile})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}

		logger.Debug("should be filtered")
		logger.Info("should appear")

		data, _ := os.ReadFile(logFile)
		if strings.Contains(string(data), "should be filtered") {
			t.Error("Debug message should be filtered at info level")
		}
		if !strings.Contains(string(data), "should appear") {
			t.Error("Info message should be logged")
		}
	})
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("Default logger should not be nil")
	}
}

func TestJSONFormat(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: LevelInfo, Format: FormatJSON, Output: logFile})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("json message", "scan_id", "abc123", "hosts", 4)

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "json message" {
		t.Errorf("Expected msg 'json message', got %v", entry["msg"])
	}
	if entry["scan_id"] != "abc123" {
		t.Errorf("Expected scan_id 'abc123', got %v", entry["scan_id"])
	}
	if entry["hosts"] != float64(4) {
		t.Errorf("Expected hosts 4, got %v", entry["hosts"])
	}
}

func TestWithMethods(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: LevelDebug, Format: FormatJSON, Output: logFile})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	tests := []struct {
		name   string
		log    func()
		key    string
		expect string
	}{
		{
			"with component",
			func() { logger.WithComponent("sweep").Info("component test") },
			"component", "sweep",
		},
		{
			"with scan id",
			func() { logger.WithScanID("deadbeef").Info("scan id test") },
			"scan_id", "deadbeef",
		},
		{
			"with network",
			func() { logger.WithNetwork("lab").Info("network test") },
			"network", "lab",
		},
		{
			"with error",
			func() { logger.WithError(errors.New("boom")).Error("error test") },
			"error", "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.Truncate(logFile, 0); err != nil {
				t.Fatalf("Failed to truncate log file: %v", err)
			}
			tt.log()

			data, _ := os.ReadFile(logFile)
			var entry map[string]interface{}
			if err := json.Unmarshal(data, &entry); err != nil {
				t.Fatalf("Log output is not valid JSON: %v", err)
			}
			if fmt.Sprintf("%v", entry[tt.key]) != tt.expect {
				t.Errorf("Expected %s=%s, got %v", tt.key, tt.expect, entry[tt.key])
			}
		})
	}
}

func TestSweepAndRegistryHelpers(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: LevelInfo, Format: FormatJSON, Output: logFile})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.InfoSweep("phase complete", "192.168.1.0/24", "open_ports", 7)
	logger.ErrorSweep("phase failed", "10.0.0.5", errors.New("timeout"))
	logger.InfoRegistry("network added", "name", "lab")
	logger.ErrorRegistry("store failed", errors.New("disk full"))

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 log lines, got %d", len(lines))
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("First line is not valid JSON: %v", err)
	}
	if first["target"] != "192.168.1.0/24" {
		t.Errorf("Expected target field on sweep log, got %v", first["target"])
	}
	if first["open_ports"] != float64(7) {
		t.Errorf("Expected open_ports 7, got %v", first["open_ports"])
	}

	var third map[string]interface{}
	if err := json.Unmarshal([]byte(lines[2]), &third); err != nil {
		t.Fatalf("Third line is not valid JSON: %v", err)
	}
	if third["component"] != "registry" {
		t.Errorf("Expected component 'registry', got %v", third["component"])
	}
}

func TestSetAndGetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	logFile := filepath.Join(t.TempDir(), "test.log")
	logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: logFile})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	SetDefault(logger)
	if Default() != logger {
		t.Error("Default() should return the logger set via SetDefault")
	}

	Info("via package function", "key", "value")

	data, _ := os.ReadFile(logFile)
	if !strings.Contains(string(data), "via package function") {
		t.Error("Package-level Info should write through the default logger")
	}
}

func TestLogLevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: LevelWarn, Format: FormatText, Output: logFile})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	data, _ := os.ReadFile(logFile)
	output := string(data)

	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Error("Messages below warn level should be filtered")
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Error("Warn and error messages should be logged")
	}
}

func TestConcurrentLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: logFile})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	const goroutines = 10
	const messages = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < messages; j++ {
				logger.Info("concurrent message", "goroutine", id, "seq", j)
			}
		}(i)
	}
	wg.Wait()

	data, _ := os.ReadFile(logFile)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != goroutines*messages {
		t.Errorf("Expected %d log lines, got %d", goroutines*messages, len(lines))
	}
}
