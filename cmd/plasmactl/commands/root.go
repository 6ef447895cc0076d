// Package commands implements the plasmactl CLI commands.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/arrowlake/plasma-go/pkg/plasma"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// globalFlags holds the persistent flags shared by every subcommand.
var globalFlags struct {
	store   string
	manager string
	timeout time.Duration
}

var rootCmd = &cobra.Command{
	Use:           "plasmactl",
	Short:         "Command-line client for a Plasma-style object store",
	Long:          `plasmactl puts, gets, and inspects objects in a Plasma-style shared-memory object store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.store, "store", "", "store daemon Unix socket path (required)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.manager, "manager", "", "manager daemon Unix socket path (optional)")
	rootCmd.PersistentFlags().DurationVar(&globalFlags.timeout, "timeout", 5*time.Second, "blocking operation timeout")
	_ = rootCmd.MarkPersistentFlagRequired("store")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(evictCmd)
}

// connectConfig builds a plasma.ClientConfig from the persistent flags.
func connectConfig() plasma.ClientConfig {
	cfg := plasma.DefaultConfig(globalFlags.store)
	cfg.ManagerSocketPath = globalFlags.manager
	return cfg
}
