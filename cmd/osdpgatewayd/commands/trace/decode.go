package trace

import (
	"fmt"
	"os"

	"github.com/osdpgw/gateway/pkg/trace"
	"github.com/spf13/cobra"
)

var decodeText bool

var decodeCmd = &cobra.Command{
	Use:   "decode <file.osdpcap>",
	Short: "Decode a packet capture the daemon exported to local disk",
	Long: `Decode reads an OSDPCAP file written by the Packet Trace Store's
local export path and prints its entries as text.

Example:
  osdpgatewayd trace decode lobby-reader-2026-07-31.osdpcap`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeText, "text", true, "Render as human-readable text (the only supported form)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	blob, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read capture file: %w", err)
	}

	entries, err := trace.DecodeOSDPCAP(blob)
	if err != nil {
		return err
	}

	os.Stdout.Write(trace.ExportText(entries))
	fmt.Printf("%d packets\n", len(entries))
	return nil
}
