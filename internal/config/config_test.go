package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" || cfg.ResultsDir == "" {
		t.Error("Default config should set data and results directories")
	}
	if cfg.Sweep.Phase1Command == "" {
		t.Error("Default config should set a discovery command")
	}
	if cfg.Sweep.Phase2Command == "" || cfg.Sweep.Phase2Timeout != time.Hour {
		t.Errorf("Unexpected detail phase defaults: %q %v",
			cfg.Sweep.Phase2Command, cfg.Sweep.Phase2Timeout)
	}
	if cfg.Sweep.Phase1Timeout != 30*time.Minute {
		t.Errorf("Expected 30m discovery timeout, got %v", cfg.Sweep.Phase1Timeout)
	}
	if cfg.Sweep.ConcurrentScans != 1 {
		t.Errorf("Expected single concurrent scan by default, got %d", cfg.Sweep.ConcurrentScans)
	}
	if cfg.Sweep.MaxHistory != 50 {
		t.Errorf("Expected 50 history entries by default, got %d", cfg.Sweep.MaxHistory)
	}
	if cfg.Influx.Enabled {
		t.Error("Influx publishing should be disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load should fall back to defaults: %v", err)
		}
		if cfg.Sweep.MaxHistory != Default().Sweep.MaxHistory {
			t.Error("Missing file should yield default configuration")
		}
	})

	t.Run("valid file overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
data_dir: /tmp/netsweep
results_dir: /tmp/netsweep/results
sweep:
  concurrent_scans: 4
  schedule: "0 3 * * *"
influx:
  enabled: true
  url: http://localhost:8086
  org: home
  bucket: scans
  token: secret
  measurement: netsweep
logging:
  level: debug
  format: json
`)

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.DataDir != "/tmp/netsweep" {
			t.Errorf("Expected overridden data dir, got %s", cfg.DataDir)
		}
		if cfg.Sweep.ConcurrentScans != 4 {
			t.Errorf("Expected 4 concurrent scans, got %d", cfg.Sweep.ConcurrentScans)
		}
		if cfg.Sweep.Phase1Command != Default().Sweep.Phase1Command {
			t.Error("Unset fields should keep their defaults")
		}
		if !cfg.Influx.Enabled || cfg.Influx.Bucket != "scans" {
			t.Errorf("Unexpected influx config: %+v", cfg.Influx)
		}
		if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
			t.Errorf("Unexpected logging config: %+v", cfg.Logging)
		}
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := writeConfigFile(t, "data_dir: [unclosed")

		if _, err := Load(path); err == nil {
			t.Error("Malformed YAML should fail to load")
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		path := writeConfigFile(t, `
sweep:
  concurrent_scans: 0
`)

		if _, err := Load(path); err == nil {
			t.Error("Invalid configuration should fail to load")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(_ *Config) {}, false},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"empty results dir", func(c *Config) { c.ResultsDir = "" }, true},
		{"empty phase1 command", func(c *Config) { c.Sweep.Phase1Command = "  " }, true},
		{"phase2 missing ports placeholder", func(c *Config) { c.Sweep.Phase2Command = "nmap -sCV" }, true},
		{"zero phase1 timeout", func(c *Config) { c.Sweep.Phase1Timeout = 0 }, true},
		{"negative phase2 timeout", func(c *Config) { c.Sweep.Phase2Timeout = -time.Second }, true},
		{"zero concurrent scans", func(c *Config) { c.Sweep.ConcurrentScans = 0 }, true},
		{"zero max history", func(c *Config) { c.Sweep.MaxHistory = 0 }, true},
		{"valid schedule", func(c *Config) { c.Sweep.Schedule = "*/30 * * * *" }, false},
		{"descriptor schedule", func(c *Config) { c.Sweep.Schedule = "@daily" }, false},
		{"invalid schedule", func(c *Config) { c.Sweep.Schedule = "every tuesday" }, true},
		{"influx enabled without url", func(c *Config) {
			c.Influx.Enabled = true
			c.Influx.URL = ""
		}, true},
		{"influx enabled without bucket", func(c *Config) {
			c.Influx.Enabled = true
			c.Influx.Bucket = ""
		}, true},
		{"influx enabled without measurement", func(c *Config) {
			c.Influx.Enabled = true
			c.Influx.Measurement = ""
		}, true},
		{"influx enabled is otherwise valid", func(c *Config) { c.Influx.Enabled = true }, false},
		{"api port out of range", func(c *Config) { c.API.Port = 70000 }, true},
		{"api without listen address", func(c *Config) { c.API.ListenAddr = "" }, true},
		{"api disabled skips api checks", func(c *Config) {
			c.API.Enabled = false
			c.API.Port = 0
		}, false},
		{"invalid log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected valid config, got error: %v", err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.DataDir = "/srv/netsweep"
	cfg.Sweep.Schedule = "0 4 * * *"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if loaded.DataDir != "/srv/netsweep" {
		t.Errorf("Expected saved data dir, got %s", loaded.DataDir)
	}
	if loaded.Sweep.Schedule != "0 4 * * *" {
		t.Errorf("Expected saved schedule, got %s", loaded.Sweep.Schedule)
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/netsweep"
	cfg.ResultsDir = "/var/lib/netsweep/results"

	if got := cfg.RegistryPath(); got != "/var/lib/netsweep/networks.json" {
		t.Errorf("Unexpected registry path: %s", got)
	}
	if got := cfg.LockPath(); got != "/var/lib/netsweep/netsweep.lock" {
		t.Errorf("Unexpected lock path: %s", got)
	}
	if got := cfg.HistoryPath(); got != "/var/lib/netsweep/results/scan_history.json" {
		t.Errorf("Unexpected history path: %s", got)
	}
}

func TestGetAPIAddress(t *testing.T) {
	cfg := Default()
	cfg.API.ListenAddr = "0.0.0.0"
	cfg.API.Port = 9090

	if got := cfg.GetAPIAddress(); got != "0.0.0.0:9090" {
		t.Errorf("Expected 0.0.0.0:9090, got %s", got)
	}
	if !cfg.IsAPIEnabled() {
		t.Error("API should be enabled by default")
	}
}
