package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

// GatewayVersion is stamped into export documents. Set by the root command
// from its build-time version information.
var GatewayVersion = "dev"

var exportFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export readers, plugin mappings, and feedback as JSON",
	Long: `Export writes the full reader, plugin mapping, and feedback
configuration as a JSON document. Secure-channel keys are never included.

Examples:
  osdpgatewayd config export
  osdpgatewayd config export -f gateway-config.json`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	doc, err := configsvc.NewExportImportService(repo, GatewayVersion).Export(context.Background())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export document: %w", err)
	}
	data = append(data, '\n')

	if exportFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportFile, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", exportFile, err)
	}
	fmt.Printf("Exported %d readers to %s\n", len(doc.Readers), exportFile)
	return nil
}
