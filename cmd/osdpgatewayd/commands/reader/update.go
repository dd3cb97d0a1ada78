package reader

import (
	"context"
	"fmt"
	"os"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/spf13/cobra"
)

var (
	updateName     string
	updatePort     string
	updateBaud     int
	updateAddress  int
	updateSecurity string
	updateEnabled  bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a reader's configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateName, "name", "", "New name")
	updateCmd.Flags().StringVar(&updatePort, "port", "", "New serial port")
	updateCmd.Flags().IntVar(&updateBaud, "baud", 0, "New baud rate")
	updateCmd.Flags().IntVar(&updateAddress, "address", 0, "New OSDP device address")
	updateCmd.Flags().StringVar(&updateSecurity, "security", "", "New security mode (clear_text|install|secure)")
	updateCmd.Flags().BoolVar(&updateEnabled, "enabled", false, "Bring the reader online at daemon startup")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewReaderConfigService(repo, cliutil.OfflineBus{})
	ctx := context.Background()

	existing, err := svc.GetReader(ctx, args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("name") {
		existing.Name = updateName
	}
	if cmd.Flags().Changed("port") {
		existing.Port = updatePort
	}
	if cmd.Flags().Changed("baud") {
		existing.Baud = updateBaud
	}
	if cmd.Flags().Changed("address") {
		existing.Address = updateAddress
	}
	if cmd.Flags().Changed("security") {
		existing.SecurityMode = model.SecurityMode(updateSecurity)
	}
	if cmd.Flags().Changed("enabled") {
		existing.Enabled = updateEnabled
	}

	r, err := svc.UpdateReader(ctx, *existing)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Reader %q updated\n", r.Name)
	return nil
}
