package config

import (
	"context"
	"fmt"
	"os"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a configuration export document",
	Long: `Import reads a JSON document produced by "config export" and writes
its readers, plugin mappings, and feedback configuration to the store.
Readers with a matching id are overwritten; others are left untouched.

The document is validated before anything is written: duplicate reader
names, duplicate addresses or mismatched baud rates on a shared port,
duplicate plugin execution orders, negative beep counts, and non-positive
LED durations are all rejected.

Example:
  osdpgatewayd config import gateway-config.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	doc, err := configsvc.ParseExportDocument(data)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := configsvc.NewExportImportService(repo, GatewayVersion).Import(context.Background(), doc); err != nil {
		return err
	}
	fmt.Printf("Imported %d readers and feedback configuration from %s\n", len(doc.Readers), args[0])
	return nil
}
