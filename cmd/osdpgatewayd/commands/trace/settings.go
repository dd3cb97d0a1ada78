package trace

import (
	"fmt"
	"os"

	"github.com/osdpgw/gateway/internal/cli/output"
	"github.com/osdpgw/gateway/pkg/config"
	"github.com/spf13/cobra"
)

var settingsShowCmd = &cobra.Command{
	Use:   "settings-show",
	Short: "Display the persisted trace bootstrap settings",
	RunE:  runSettingsShow,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"Enabled", boolToYesNo(cfg.Trace.Enabled)},
		{"Limit mode", cfg.Trace.LimitMode},
		{"Max packets per reader", fmt.Sprintf("%d", cfg.Trace.MaxPacketsPerReader)},
		{"Max packets total", fmt.Sprintf("%d", cfg.Trace.MaxPacketsTotal)},
		{"Max age (minutes)", fmt.Sprintf("%d", cfg.Trace.MaxAgeMinutes)},
		{"Memory limit", cfg.Trace.MemoryLimit.String()},
		{"Auto-stop on memory limit", boolToYesNo(cfg.Trace.AutoStopOnMemoryLimit)},
	})
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
