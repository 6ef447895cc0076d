package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/client"
)

var putFlags struct {
	id       string
	input    string
	metadata string
}

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Create, fill, and seal an object",
	Long: `put reads data (from --in, or stdin if omitted), creates an object of
that size, copies the data into its data segment, and seals it.`,
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVar(&putFlags.id, "id", "", "hex-encoded object id (required)")
	putCmd.Flags().StringVar(&putFlags.input, "in", "", "input file (default: stdin)")
	putCmd.Flags().StringVar(&putFlags.metadata, "metadata", "", "metadata string stored alongside the object")
	_ = putCmd.MarkFlagRequired("id")
}

func runPut(cmd *cobra.Command, args []string) error {
	id, err := plasma.ObjectIDFromHex(putFlags.id)
	if err != nil {
		return fmt.Errorf("parse --id: %w", err)
	}

	data, err := readInput(putFlags.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	metadata := []byte(putFlags.metadata)

	c, err := client.Connect(connectConfig())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Disconnect()

	buf, err := c.Create(id, int64(len(data)), int64(len(metadata)), 0)
	if err != nil {
		return fmt.Errorf("create %s: %w", id, err)
	}
	copy(buf.Data, data)
	copy(buf.Metadata, metadata)

	if err := c.Seal(id); err != nil {
		return fmt.Errorf("seal %s: %w", id, err)
	}
	if err := buf.Release(); err != nil {
		return fmt.Errorf("release %s: %w", id, err)
	}

	fmt.Printf("put %s (%d bytes data, %d bytes metadata)\n", id, len(data), len(metadata))
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
