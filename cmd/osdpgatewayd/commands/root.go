// Package commands implements the osdpgatewayd CLI.
package commands

import (
	"os"

	configcmd "github.com/osdpgw/gateway/cmd/osdpgatewayd/commands/config"
	feedbackcmd "github.com/osdpgw/gateway/cmd/osdpgatewayd/commands/feedback"
	mappingcmd "github.com/osdpgw/gateway/cmd/osdpgatewayd/commands/mapping"
	readercmd "github.com/osdpgw/gateway/cmd/osdpgatewayd/commands/reader"
	tracecmd "github.com/osdpgw/gateway/cmd/osdpgatewayd/commands/trace"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "osdpgatewayd",
	Short: "OSDP gateway daemon",
	Long: `osdpgatewayd polls a set of OSDP-wired access-control readers, runs
card and PIN reads through a pluggable decision pipeline, and relays
feedback (LED/buzzer/text) back to the reader.

Use "osdpgatewayd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	configcmd.GatewayVersion = Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/osdpgatewayd/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(readercmd.Cmd)
	rootCmd.AddCommand(mappingcmd.Cmd)
	rootCmd.AddCommand(feedbackcmd.Cmd)
	rootCmd.AddCommand(tracecmd.Cmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cfgFile
}

// Exit prints an error to stderr and exits with status 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
