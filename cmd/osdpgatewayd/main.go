// Command osdpgatewayd is the OSDP gateway daemon: it owns the Bus
// Manager, Device Sessions, Event Pipeline, PIN Collector, Plugin Host,
// and Packet Trace Store for a single site.
package main

import (
	"fmt"
	"os"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
