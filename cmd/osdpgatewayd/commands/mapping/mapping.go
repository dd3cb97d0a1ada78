// Package mapping implements plugin mapping CRUD subcommands.
package mapping

import (
	"github.com/spf13/cobra"
)

// Cmd is the mapping subcommand.
var Cmd = &cobra.Command{
	Use:   "mapping",
	Short: "Manage reader/plugin mappings",
	Long: `List, set, reorder, enable/disable, delete, and copy the plugin
chain attached to a reader.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(reorderCmd)
	Cmd.AddCommand(enableCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(copyCmd)
}
