package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arrowlake/plasma-go/pkg/plasma/client"
)

var evictFlags struct {
	bytes int64
}

var evictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Ask the store to reclaim unreferenced objects",
	Long: `evict requests that the store evict up to --bytes of unreferenced
objects, and reports how many bytes were actually reclaimed.`,
	RunE: runEvict,
}

func init() {
	evictCmd.Flags().Int64Var(&evictFlags.bytes, "bytes", 0, "number of bytes to reclaim (required)")
	_ = evictCmd.MarkFlagRequired("bytes")
}

func runEvict(cmd *cobra.Command, args []string) error {
	c, err := client.Connect(connectConfig())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Disconnect()

	reclaimed, err := c.Evict(evictFlags.bytes)
	if err != nil {
		return fmt.Errorf("evict: %w", err)
	}
	fmt.Printf("reclaimed %d bytes\n", reclaimed)
	return nil
}
