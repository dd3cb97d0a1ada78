// Package config implements configuration-file tooling subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate the daemon configuration file",
}

func init() {
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(exportCmd)
	Cmd.AddCommand(importCmd)
}
