package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/client"
)

var getFlags struct {
	id  string
	out string
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a sealed object's data segment",
	Long: `get blocks (up to --timeout) until the object is sealed, then writes its
data segment to --out, or stdout if omitted.`,
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVar(&getFlags.id, "id", "", "hex-encoded object id (required)")
	getCmd.Flags().StringVar(&getFlags.out, "out", "", "output file (default: stdout)")
	_ = getCmd.MarkFlagRequired("id")
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := plasma.ObjectIDFromHex(getFlags.id)
	if err != nil {
		return fmt.Errorf("parse --id: %w", err)
	}

	c, err := client.Connect(connectConfig())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Disconnect()

	ctx, cancel := context.WithTimeout(cmd.Context(), globalFlags.timeout)
	defer cancel()

	results, err := c.Get(ctx, []plasma.ObjectID{id})
	if err != nil {
		return fmt.Errorf("get %s: %w", id, err)
	}
	res := results[0]
	if !res.Ready {
		return fmt.Errorf("get %s: not sealed within --timeout", id)
	}
	defer res.Buffer.Release()

	if getFlags.out == "" {
		_, err = os.Stdout.Write(res.Buffer.Data)
		return err
	}
	return os.WriteFile(getFlags.out, res.Buffer.Data, 0o644)
}
