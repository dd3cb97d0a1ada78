package reader

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/internal/cli/prompt"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/spf13/cobra"
)

var (
	createName     string
	createPort     string
	createBaud     int
	createAddress  int
	createSecurity string
	createEnabled  bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new reader",
	Long: `Create a reader configuration.

If --name or --port are not given, you will be prompted for them.

Examples:
  osdpgatewayd reader create --name lobby --port COM3 --baud 9600
  osdpgatewayd reader create --name lobby --port COM3 --baud 9600 --security install`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "Reader name (required)")
	createCmd.Flags().StringVar(&createPort, "port", "", "Serial port, e.g. COM3 or /dev/ttyUSB0 (required)")
	createCmd.Flags().IntVar(&createBaud, "baud", 9600, "Baud rate")
	createCmd.Flags().IntVar(&createAddress, "address", model.DefaultReaderAddress, "OSDP device address")
	createCmd.Flags().StringVar(&createSecurity, "security", string(model.SecurityClearText), "Security mode (clear_text|install|secure)")
	createCmd.Flags().BoolVar(&createEnabled, "enabled", true, "Bring the reader online at daemon startup")
}

func runCreate(cmd *cobra.Command, args []string) error {
	var err error
	interactive := !cmd.Flags().Changed("name")

	name := createName
	if name == "" {
		name, err = prompt.Input("Name", "")
		if err != nil {
			return err
		}
	}

	port := createPort
	if port == "" {
		port, err = prompt.Input("Port", "")
		if err != nil {
			return err
		}
	}

	baud := createBaud
	if interactive && !cmd.Flags().Changed("baud") {
		baudStr, err := prompt.Input("Baud", strconv.Itoa(baud))
		if err != nil {
			return err
		}
		baud, err = strconv.Atoi(baudStr)
		if err != nil {
			return fmt.Errorf("invalid baud: %w", err)
		}
	}

	security := createSecurity
	if interactive && !cmd.Flags().Changed("security") {
		security, err = prompt.Select("Security mode", []prompt.SelectOption{
			{Label: "clear_text", Value: string(model.SecurityClearText), Description: "No secure channel"},
			{Label: "install", Value: string(model.SecurityInstall), Description: "Default installation key"},
			{Label: "secure", Value: string(model.SecuritySecure), Description: "Stored per-reader key"},
		})
		if err != nil {
			return err
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewReaderConfigService(repo, cliutil.OfflineBus{})
	r, err := svc.CreateReader(context.Background(), model.Reader{
		Name:         name,
		Port:         port,
		Baud:         baud,
		Address:      createAddress,
		SecurityMode: model.SecurityMode(security),
		Enabled:      createEnabled,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Reader %q created (id %s)\n", r.Name, r.ID)
	return nil
}
