package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sweep runs",
	Long: `List the recorded sweep runs, newest first. The ledger keeps a bounded
number of runs; older entries are dropped as new sweeps complete.`,
	Example: `  netsweep history
  netsweep history --limit 5`,
	Run: runHistory,
}

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current sweep status",
	Long: `Show whether a sweep is currently running, who holds the scan lock,
and the outcome of the most recent run.`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show at most N runs (0 = all recorded)")
}

func runHistory(_ *cobra.Command, _ []string) {
	rt := mustRuntime()

	runs := rt.ledger.List()
	if len(runs) == 0 {
		fmt.Println("No sweeps recorded yet.")
		return
	}
	if historyLimit > 0 && len(runs) > historyLimit {
		runs = runs[:historyLimit]
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Scan ID", "Time", "Network", "Status", "Hosts", "Ports", "Services", "Duration")

	for _, run := range runs {
		_ = table.Append([]string{
			run.ScanID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.NetworkName,
			run.Status,
			strconv.Itoa(run.HostsDiscovered),
			strconv.Itoa(run.PortsFound),
			strconv.Itoa(run.ServicesIdentified),
			fmt.Sprintf("%.1fs", run.DurationSeconds),
		})
	}

	_ = table.Render()
}

func runStatus(_ *cobra.Command, _ []string) {
	rt := mustRuntime()

	holder, err := rt.lock.Inspect()
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error reading scan lock: %v\n", err)
		os.Exit(1)
	case holder != nil:
		fmt.Printf("Status: sweep %s in progress (pid %d, running for %s)\n",
			holder.ScanID, holder.PID, holder.Age.Round(timeDisplayPrecision))
	default:
		fmt.Println("Status: idle")
	}

	latest := rt.ledger.Latest()
	if latest == nil {
		fmt.Println("Last run: none recorded")
		return
	}

	fmt.Printf("Last run: %s at %s (%s, %d hosts, %d ports, %.1fs)\n",
		latest.ScanID,
		latest.Timestamp.Format("2006-01-02 15:04:05"),
		latest.Status,
		latest.HostsDiscovered,
		latest.PortsFound,
		latest.DurationSeconds)
}
