package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var networkDescription string

// networksCmd represents the networks command group.
var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "Manage the network registry",
	Long: `Manage the registry of networks that netsweep knows about. Registered
networks can be swept by name and are picked up by the scan scheduler when
enabled.`,
	Example: `  netsweep networks list
  netsweep networks add lab 192.168.1.0/24 --description "Lab segment"
  netsweep networks disable guest`,
}

var networksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered networks",
	Run:   runNetworksList,
}

var networksAddCmd = &cobra.Command{
	Use:   "add <name> <cidr>",
	Short: "Register a network",
	Example: `  netsweep networks add lab 192.168.1.0/24
  netsweep networks add dmz 10.0.10.0/24 --description "DMZ hosts"`,
	Args: cobra.ExactArgs(2),
	Run:  runNetworksAdd,
}

var networksRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a registered network",
	Args:  cobra.ExactArgs(1),
	Run:   runNetworksRemove,
}

var networksEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a network for scheduled sweeps",
	Args:  cobra.ExactArgs(1),
	Run:   runNetworksEnable,
}

var networksDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Exclude a network from scheduled sweeps",
	Args:  cobra.ExactArgs(1),
	Run:   runNetworksDisable,
}

func init() {
	rootCmd.AddCommand(networksCmd)
	networksCmd.AddCommand(networksListCmd)
	networksCmd.AddCommand(networksAddCmd)
	networksCmd.AddCommand(networksRemoveCmd)
	networksCmd.AddCommand(networksEnableCmd)
	networksCmd.AddCommand(networksDisableCmd)

	networksAddCmd.Flags().StringVar(&networkDescription, "description", "", "Free-form network description")
}

func runNetworksList(_ *cobra.Command, _ []string) {
	rt := mustRuntime()

	networks := rt.registry.List()
	if len(networks) == 0 {
		fmt.Println("No networks registered. Add one with 'netsweep networks add <name> <cidr>'.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "CIDR", "Enabled", "Scans", "Last Scan", "Description")

	for _, n := range networks {
		lastScan := "never"
		if n.LastScan != nil {
			lastScan = n.LastScan.Format("2006-01-02 15:04:05")
		}
		_ = table.Append([]string{
			n.Name,
			n.CIDR,
			strconv.FormatBool(n.Enabled),
			strconv.Itoa(n.ScanCount),
			lastScan,
			n.Description,
		})
	}

	_ = table.Render()
}

func runNetworksAdd(_ *cobra.Command, args []string) {
	rt := mustRuntime()

	network, err := rt.registry.Add(args[0], args[1], networkDescription)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding network: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Registered network %q (%s)\n", network.Name, network.CIDR)
}

func runNetworksRemove(_ *cobra.Command, args []string) {
	rt := mustRuntime()

	if err := rt.registry.Remove(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing network: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Removed network %q\n", args[0])
}

func runNetworksEnable(_ *cobra.Command, args []string) {
	setNetworkEnabled(args[0], true)
}

func runNetworksDisable(_ *cobra.Command, args []string) {
	setNetworkEnabled(args[0], false)
}

func setNetworkEnabled(name string, enabled bool) {
	rt := mustRuntime()

	if err := rt.registry.SetEnabled(name, enabled); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating network: %v\n", err)
		os.Exit(1)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Network %q %s\n", name, state)
}

// mustRuntime loads configuration and wires the runtime, exiting on error.
func mustRuntime() *runtime {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return newRuntime(cfg)
}
