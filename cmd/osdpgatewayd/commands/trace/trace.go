// Package trace implements Packet Trace Store settings subcommands.
//
// The trace ring buffer itself lives only in the memory of a running
// Gateway process; the ambient HTTP surface intentionally carries no
// business endpoints to read it back out (ADR in DESIGN.md). These
// subcommands manage the persisted bootstrap settings a daemon picks up
// at its next start, and decode OSDPCAP files the daemon has already
// exported to local disk.
package trace

import (
	"github.com/spf13/cobra"
)

// Cmd is the trace subcommand.
var Cmd = &cobra.Command{
	Use:   "trace",
	Short: "Manage Packet Trace Store settings and decode exported captures",
}

func init() {
	Cmd.AddCommand(settingsShowCmd)
	Cmd.AddCommand(settingsSetCmd)
	Cmd.AddCommand(decodeCmd)
}
