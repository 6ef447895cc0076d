package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/client"
)

var statFlags struct {
	id string
}

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Report an object's cluster-wide status",
	Long: `stat asks the manager for an object's status (requires --manager).
Without --manager, this client's own local bookkeeping is printed instead.`,
	RunE: runStat,
}

func init() {
	statCmd.Flags().StringVar(&statFlags.id, "id", "", "hex-encoded object id (required)")
	_ = statCmd.MarkFlagRequired("id")
}

func runStat(cmd *cobra.Command, args []string) error {
	id, err := plasma.ObjectIDFromHex(statFlags.id)
	if err != nil {
		return fmt.Errorf("parse --id: %w", err)
	}

	c, err := client.Connect(connectConfig())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Disconnect()

	if globalFlags.manager == "" {
		stats := c.Stats()
		fmt.Printf("no manager configured; local client stats:\n")
		fmt.Printf("  mmap regions:           %d (%d bytes)\n", stats.MmapRegions, stats.MmapBytes)
		fmt.Printf("  in-use entries:         %d\n", stats.InUseEntries)
		fmt.Printf("  release history:        %d entries (%d bytes)\n", stats.ReleaseHistoryEntries, stats.ReleaseHistoryBytes)
		return nil
	}

	statuses, err := c.Info([]plasma.ObjectID{id})
	if err != nil {
		return fmt.Errorf("info %s: %w", id, err)
	}
	if len(statuses) == 0 {
		fmt.Printf("%s: unknown to manager\n", id)
		return nil
	}
	s := statuses[0]
	fmt.Printf("%s: location=%d data_size=%d\n", s.ObjectID, s.Location, s.DataSize)
	return nil
}
