package reader

import (
	"context"
	"fmt"
	"os"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/internal/cli/output"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single reader's configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewReaderConfigService(repo, cliutil.OfflineBus{})
	r, err := svc.GetReader(context.Background(), args[0])
	if err != nil {
		return err
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"ID", r.ID},
		{"Name", r.Name},
		{"Port", r.Port},
		{"Baud", fmt.Sprintf("%d", r.Baud)},
		{"Address", fmt.Sprintf("%d", r.Address)},
		{"Security mode", string(r.SecurityMode)},
		{"Enabled", boolToYesNo(r.Enabled)},
		{"Created", r.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Updated", r.UpdatedAt.Format("2006-01-02 15:04:05")},
	})
}
