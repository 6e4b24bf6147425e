package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the complete netsweep configuration
type Config struct {
	// Base directory for persisted state (registry, lock file)
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Directory for per-run result documents and XML artifacts
	ResultsDir string `yaml:"results_dir" json:"results_dir"`

	// Sweep configuration
	Sweep SweepConfig `yaml:"sweep" json:"sweep"`

	// InfluxDB publishing configuration
	Influx InfluxConfig `yaml:"influx" json:"influx"`

	// API configuration
	API APIConfig `yaml:"api" json:"api"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SweepConfig holds two-phase sweep settings
type SweepConfig struct {
	// Discovery phase command template
	Phase1Command string `yaml:"phase1_command" json:"phase1_command"`

	// Detail phase command template, {ports} substituted per host
	Phase2Command string `yaml:"phase2_command" json:"phase2_command"`

	// Discovery phase timeout
	Phase1Timeout time.Duration `yaml:"phase1_timeout" json:"phase1_timeout"`

	// Detail phase timeout, applied per host
	Phase2Timeout time.Duration `yaml:"phase2_timeout" json:"phase2_timeout"`

	// Number of hosts analyzed in parallel during the detail phase
	ConcurrentScans int `yaml:"concurrent_scans" json:"concurrent_scans"`

	// Number of history entries retained
	MaxHistory int `yaml:"max_history" json:"max_history"`

	// Keep raw nmap XML output next to the result documents
	KeepXMLFiles bool `yaml:"keep_xml_files" json:"keep_xml_files"`

	// Cron expression for periodic sweeps of enabled networks, empty disables
	Schedule string `yaml:"schedule" json:"schedule"`
}

// InfluxConfig holds InfluxDB v2 write settings
type InfluxConfig struct {
	// Enable publishing to InfluxDB
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Base URL of the InfluxDB instance
	URL string `yaml:"url" json:"url"`

	// Organization name
	Org string `yaml:"org" json:"org"`

	// Target bucket
	Bucket string `yaml:"bucket" json:"bucket"`

	// API token
	Token string `yaml:"token" json:"token"`

	// Base measurement name for emitted points
	Measurement string `yaml:"measurement" json:"measurement"`

	// HTTP client timeout for write requests
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// APIConfig holds API server settings
type APIConfig struct {
	// Enable API server
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen address
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// Listen port
	Port int `yaml:"port" json:"port"`

	// CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors"`

	// Request timeout
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// Maximum request size
	MaxRequestSize int64 `yaml:"max_request_size" json:"max_request_size"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	// Enable CORS
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Allowed origins
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`

	// Allowed methods
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`

	// Allowed headers
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Enable request logging for API
	RequestLogging bool `yaml:"request_logging" json:"request_logging"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		DataDir:    "/var/lib/netsweep",
		ResultsDir: "/var/lib/netsweep/results",
		Sweep: SweepConfig{
			Phase1Command:   "nmap -p- --open -sS --min-rate 5000 -vvv -n -Pn",
			Phase2Command:   "nmap -sCV -p{ports}",
			Phase1Timeout:   30 * time.Minute,
			Phase2Timeout:   1 * time.Hour,
			ConcurrentScans: 1,
			MaxHistory:      50,
			KeepXMLFiles:    true,
			Schedule:        "",
		},
		Influx: InfluxConfig{
			Enabled:     false,
			URL:         "http://influxdb:8086",
			Org:         "home",
			Bucket:      "netsweep",
			Token:       "",
			Measurement: "netsweep",
			Timeout:     30 * time.Second,
		},
		API: APIConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1",
			Port:       8080,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization"},
			},
			RequestTimeout: 30 * time.Second,
			MaxRequestSize: 1024 * 1024, // 1MB
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			Output:         "stdout",
			RequestLogging: true,
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Start with defaults
	config := Default()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // Return defaults if no config file
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.ResultsDir == "" {
		return fmt.Errorf("results directory is required")
	}

	// Validate sweep configuration
	if strings.TrimSpace(c.Sweep.Phase1Command) == "" {
		return fmt.Errorf("phase1 command is required")
	}
	if !strings.Contains(c.Sweep.Phase2Command, "{ports}") {
		return fmt.Errorf("phase2 command must contain the {ports} placeholder")
	}
	if c.Sweep.Phase1Timeout <= 0 {
		return fmt.Errorf("phase1 timeout must be positive")
	}
	if c.Sweep.Phase2Timeout <= 0 {
		return fmt.Errorf("phase2 timeout must be positive")
	}
	if c.Sweep.ConcurrentScans <= 0 {
		return fmt.Errorf("concurrent scans must be positive")
	}
	if c.Sweep.MaxHistory <= 0 {
		return fmt.Errorf("max history must be positive")
	}
	if c.Sweep.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sweep.Schedule); err != nil {
			return fmt.Errorf("invalid sweep schedule: %w", err)
		}
	}

	// Validate influx configuration
	if c.Influx.Enabled {
		if c.Influx.URL == "" {
			return fmt.Errorf("influx URL is required when publishing is enabled")
		}
		if c.Influx.Bucket == "" {
			return fmt.Errorf("influx bucket is required when publishing is enabled")
		}
		if c.Influx.Measurement == "" {
			return fmt.Errorf("influx measurement is required when publishing is enabled")
		}
		if c.Influx.Timeout <= 0 {
			return fmt.Errorf("influx timeout must be positive")
		}
	}

	// Validate API configuration
	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			return fmt.Errorf("API port must be between 1 and 65535")
		}
		if c.API.ListenAddr == "" {
			return fmt.Errorf("API listen address is required when API is enabled")
		}
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// RegistryPath returns the location of the network registry document.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.DataDir, "networks.json")
}

// LockPath returns the location of the sweep lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "netsweep.lock")
}

// HistoryPath returns the location of the sweep history ledger.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.ResultsDir, "scan_history.json")
}

// GetAPIAddress returns the full API address
func (c *Config) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.ListenAddr, c.API.Port)
}

// IsAPIEnabled returns true if API server is enabled
func (c *Config) IsAPIEnabled() bool {
	return c.API.Enabled
}
