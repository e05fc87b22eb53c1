package main

import (
	"fmt"
	"os"
	goruntime "runtime"

	"github.com/cuemby/vespanet/pkg/config"
	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// cfg is loaded by the root command before any subcommand runs
var cfg *config.Config

func init() {
	// Netlink handles for other namespaces are created by switching the
	// calling thread into them, so the main goroutine must keep its thread.
	goruntime.LockOSThread()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vespanet [--local | --vm] <container-pid> <container-ip>",
	Short: "vespanet - routable container networking",
	Long: `vespanet gives a running container a network interface that is directly
routable on the host's network.

It creates a macvlan on the host device whose network contains the container
address, moves it into the container's network namespace as "vespa", assigns
the address and installs a default route. Running it again for the same
container and address changes nothing.

Route modes:
  (default)  copy the host's default gateway
  --vm       route through the host's own address on the matched network
  --local    install no route`,
	Args:              cobra.ExactArgs(2),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := modeFlags(cmd)
		if err != nil {
			return err
		}
		req, err := parseArgs(args[0], args[1])
		if err != nil {
			return err
		}
		req.Mode = mode
		return configure(req)
	},
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"vespanet version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log in JSON format")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write metrics to this node_exporter textfile")
	rootCmd.PersistentFlags().String("journal", "", "Record provisioning history in this database")
	addModeFlags(rootCmd)

	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(macCmd)
}

// setup loads the configuration, applies flag overrides and initializes logging
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.Log.Level = level
	}
	if cmd.Flags().Changed("log-json") {
		loaded.Log.JSON, _ = cmd.Flags().GetBool("log-json")
	}
	if file, _ := cmd.Flags().GetString("metrics-file"); file != "" {
		loaded.MetricsFile = file
	}
	if journal, _ := cmd.Flags().GetString("journal"); journal != "" {
		loaded.JournalPath = journal
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	log.Init(loaded.LoggerConfig())
	cfg = loaded
	return nil
}

func addModeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("local", false, "Do not install a default route")
	cmd.Flags().Bool("vm", false, "Route through the host's address on the matched network")
}

func modeFlags(cmd *cobra.Command) (types.Mode, error) {
	local, _ := cmd.Flags().GetBool("local")
	vm, _ := cmd.Flags().GetBool("vm")
	return types.ModeFromFlags(local, vm)
}
