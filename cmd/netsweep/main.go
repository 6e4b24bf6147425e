package main

import (
	"github.com/netsweep/netsweep/cmd/cli"
)

// Build information, overridden via ldflags at release time.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
