package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netsweep/netsweep/internal/sweep"
)

var (
	sweepNetwork string
	sweepCIDR    string
)

// sweepCmd represents the sweep command.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a two-phase sweep in the foreground",
	Long: `Run a single two-phase sweep against a registered network or an ad-hoc
CIDR. Phase one discovers hosts with open ports across the full port range,
phase two runs service and version analysis against each discovered host.
The run blocks until the sweep completes and prints a summary.`,
	Example: `  netsweep sweep --network lab
  netsweep sweep --cidr 192.168.1.0/24`,
	Run: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepNetwork, "network", "", "Registered network name to sweep")
	sweepCmd.Flags().StringVar(&sweepCIDR, "cidr", "", "CIDR to sweep without registering it")
}

func runSweep(_ *cobra.Command, _ []string) {
	rt := mustRuntime()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target := sweep.Target{Name: sweepNetwork, CIDR: sweepCIDR}
	name, cidr, err := rt.runner.Resolve(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid target: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sweeping %s (%s)...\n", name, cidr)

	summary, err := rt.runner.Run(ctx, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
		os.Exit(1)
	}

	printSweepSummary(summary)
}

func printSweepSummary(summary *sweep.Summary) {
	fmt.Printf("\nSweep %s completed in %.1fs\n",
		summary.ScanID, summary.DurationSeconds)
	fmt.Printf("  Network:  %s (%s)\n", summary.NetworkName, summary.NetworkCIDR)
	fmt.Printf("  Hosts:    %d discovered, %d analyzed, %d failed\n",
		summary.Statistics.Phase1.HostsWithOpenPorts,
		summary.Statistics.Phase2.HostsAnalyzed,
		summary.Statistics.Phase2.HostsFailed)
	fmt.Printf("  Ports:    %d open\n", summary.Statistics.Phase1.TotalOpenPorts)
	fmt.Printf("  Services: %s\n", formatServices(summary.Statistics.Phase2.ServicesList))

	if len(summary.Results.Phase2Detailed) == 0 {
		return
	}

	fmt.Println()
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("IP", "Port", "State", "Service", "Product", "Version")

	ips := make([]string, 0, len(summary.Results.Phase2Detailed))
	for ip := range summary.Results.Phase2Detailed {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	for _, ip := range ips {
		detail := summary.Results.Phase2Detailed[ip]
		keys := make([]string, 0, len(detail.Ports))
		for key := range detail.Ports {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			return portKeyNumber(keys[i]) < portKeyNumber(keys[j])
		})
		for _, key := range keys {
			rec := detail.Ports[key]
			_ = table.Append([]string{
				ip,
				key,
				rec.State,
				rec.Name,
				rec.Product,
				rec.Version,
			})
		}
	}

	_ = table.Render()
}

func formatServices(services []string) string {
	if len(services) == 0 {
		return "none"
	}
	return strings.Join(services, ", ")
}

// portKeyNumber extracts the numeric port from a "port/protocol" key for sorting.
func portKeyNumber(key string) int {
	idx := strings.IndexByte(key, '/')
	if idx < 0 {
		return 0
	}
	n, _ := strconv.Atoi(key[:idx])
	return n
}
