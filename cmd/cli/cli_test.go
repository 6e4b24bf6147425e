package cli

import (
	"testing"
)

func TestCommandRegistration(t *testing.T) {
	expected := []string{"serve", "sweep", "probe", "networks", "history", "status"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range expected {
		if !registered[name] {
			t.Errorf("Command %q should be registered on the root command", name)
		}
	}
}

func TestNetworksSubcommands(t *testing.T) {
	expected := []string{"list", "add", "remove", "enable", "disable"}

	registered := make(map[string]bool)
	for _, cmd := range networksCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range expected {
		if !registered[name] {
			t.Errorf("Subcommand %q should be registered under networks", name)
		}
	}
}

func TestFormatServices(t *testing.T) {
	tests := []struct {
		name     string
		services []string
		expected string
	}{
		{"empty list", nil, "none"},
		{"single service", []string{"ssh"}, "ssh"},
		{"multiple services", []string{"http", "ssh"}, "http, ssh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatServices(tt.services); got != tt.expected {
				t.Errorf("formatServices(%v) = %q, want %q", tt.services, got, tt.expected)
			}
		})
	}
}

func TestPortKeyNumber(t *testing.T) {
	tests := []struct {
		key      string
		expected int
	}{
		{"22/tcp", 22},
		{"8080/tcp", 8080},
		{"53/udp", 53},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := portKeyNumber(tt.key); got != tt.expected {
			t.Errorf("portKeyNumber(%q) = %d, want %d", tt.key, got, tt.expected)
		}
	}
}

func TestGetVersion(t *testing.T) {
	origVersion, origCommit, origBuildTime := version, commit, buildTime
	defer SetVersion(origVersion, origCommit, origBuildTime)

	SetVersion("1.2.3", "abc1234", "2026-01-01")
	if got := getVersion(); got != "1.2.3 (commit: abc1234, built: 2026-01-01)" {
		t.Errorf("Unexpected version string: %s", got)
	}
}
