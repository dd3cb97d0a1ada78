package feedback

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
	Use:   "show",
	Short: "Display the current feedback configuration",
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewFeedbackConfigService(repo)
	cfg, err := svc.Get(context.Background())
	if err != nil {
		return err
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"Success LED", string(cfg.Success.LEDColor)},
		{"Success duration", cfg.Success.LEDDuration.String()},
		{"Success beeps", fmt.Sprintf("%d", cfg.Success.BeepCount)},
		{"Failure LED", string(cfg.Failure.LEDColor)},
		{"Failure duration", cfg.Failure.LEDDuration.String()},
		{"Failure beeps", fmt.Sprintf("%d", cfg.Failure.BeepCount)},
		{"Idle permanent color", string(cfg.Idle.PermanentColor)},
		{"Idle heartbeat color", string(cfg.Idle.HeartbeatColor)},
		{"Idle heartbeat every", cfg.Idle.HeartbeatEvery.String()},
	})
}
