package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netsweep/netsweep/internal/probe"
)

const timeDisplayPrecision = 100 * time.Millisecond

var (
	probePorts   string
	probeKind    string
	probeTimeout int
)

// probeCmd represents the probe command.
var probeCmd = &cobra.Command{
	Use:   "probe [targets...]",
	Short: "Run a quick one-off probe against hosts",
	Long: `Probe one or more hosts or CIDR ranges without touching the network
registry, the scan lock, or sweep history. Useful for quick checks while a
scheduled sweep owns the full pipeline.`,
	Example: `  netsweep probe 192.168.1.10
  netsweep probe --ports 22,80,443 --kind version 192.168.1.0/28
  netsweep probe --kind syn 10.0.0.5 10.0.0.6`,
	Args: cobra.MinimumNArgs(1),
	Run:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringVar(&probePorts, "ports", "1-1000", "Port specification (e.g. 22,80,8000-8100)")
	probeCmd.Flags().StringVar(&probeKind, "kind", probe.KindConnect, "Probe kind: connect, syn, or version")
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 300, "Probe timeout in seconds")
}

func runProbe(_ *cobra.Command, args []string) {
	cfg := &probe.Config{
		Targets:    args,
		Ports:      probePorts,
		Kind:       probeKind,
		TimeoutSec: probeTimeout,
	}

	fmt.Printf("Probing %d target(s) on ports %s...\n", len(args), probePorts)

	result, err := probe.Run(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done in %s: %d up, %d down of %d hosts\n\n",
		result.Duration.Round(timeDisplayPrecision), result.Up, result.Down, result.Total)

	if len(result.Hosts) == 0 {
		fmt.Println("No hosts responded.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Address", "Hostname", "Status", "Port", "State", "Service", "Product")

	for _, host := range result.Hosts {
		if len(host.Ports) == 0 {
			_ = table.Append([]string{host.Address, host.Hostname, host.Status, "", "", "", ""})
			continue
		}
		for _, p := range host.Ports {
			_ = table.Append([]string{
				host.Address,
				host.Hostname,
				host.Status,
				strconv.Itoa(int(p.Number)) + "/" + p.Protocol,
				p.State,
				p.Service,
				p.Product,
			})
		}
	}

	_ = table.Render()
}
