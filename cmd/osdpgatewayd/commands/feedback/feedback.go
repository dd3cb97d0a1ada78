// Package feedback implements the reader feedback configuration subcommands.
package feedback

import (
	"github.com/spf13/cobra"
)

// Cmd is the feedback subcommand.
var Cmd = &cobra.Command{
	Use:   "feedback",
	Short: "Manage the Success/Failure/Idle feedback configuration",
	Long: `The feedback configuration is a single record shared by every
reader: LED color and duration plus beep count for successful and failed
reads, and the idle-state/heartbeat LED pattern.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(setCmd)
}
