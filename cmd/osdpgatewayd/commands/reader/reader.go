// Package reader implements reader CRUD subcommands.
package reader

import (
	"github.com/spf13/cobra"
)

// Cmd is the reader subcommand.
var Cmd = &cobra.Command{
	Use:   "reader",
	Short: "Manage configured OSDP readers",
	Long: `Create, list, show, update, and delete reader configurations.

A reader binds a bus port/baud/address to a security mode. Changes made
here take effect the next time the gateway daemon starts, or immediately
if the daemon's own "reader" commands are later wired to a running
process; osdpgatewayd's reader commands edit the persisted store directly.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(deleteCmd)
}
