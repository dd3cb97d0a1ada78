package trace

import (
	"fmt"

	"github.com/osdpgw/gateway/internal/bytesize"
	"github.com/osdpgw/gateway/pkg/config"
	"github.com/spf13/cobra"
)

var (
	setEnabled               bool
	setLimitMode             string
	setMaxPacketsPerReader   int
	setMaxPacketsTotal       int
	setMaxAgeMinutes         int
	setMemoryLimit           string
	setAutoStopOnMemoryLimit bool
)

var settingsSetCmd = &cobra.Command{
	Use:   "settings-set",
	Short: "Persist new trace bootstrap settings to the config file",
	Long: `Writes the trace section of the config file. Takes effect the next
time the daemon starts; it does not reach into a running process.`,
	RunE: runSettingsSet,
}

func init() {
	settingsSetCmd.Flags().BoolVar(&setEnabled, "enabled", true, "Enable tracing at startup")
	settingsSetCmd.Flags().StringVar(&setLimitMode, "limit-mode", "size", "Limit mode (size|time|hybrid)")
	settingsSetCmd.Flags().IntVar(&setMaxPacketsPerReader, "max-packets-per-reader", 1000, "Ring buffer capacity per reader")
	settingsSetCmd.Flags().IntVar(&setMaxPacketsTotal, "max-packets-total", 5000, "Total ring buffer capacity")
	settingsSetCmd.Flags().IntVar(&setMaxAgeMinutes, "max-age-minutes", 60, "Entry age limit in minutes")
	settingsSetCmd.Flags().StringVar(&setMemoryLimit, "memory-limit", "64Mi", "Memory guard, as a human-readable size (e.g. 64Mi, 100MB)")
	settingsSetCmd.Flags().BoolVar(&setAutoStopOnMemoryLimit, "auto-stop-on-memory-limit", true, "Disable tracing when the memory guard trips")
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}

	memoryLimit, err := bytesize.ParseByteSize(setMemoryLimit)
	if err != nil {
		return fmt.Errorf("--memory-limit: %w", err)
	}

	cfg.Trace = config.TraceConfig{
		Enabled:               setEnabled,
		LimitMode:             setLimitMode,
		MaxPacketsPerReader:   setMaxPacketsPerReader,
		MaxPacketsTotal:       setMaxPacketsTotal,
		MaxAgeMinutes:         setMaxAgeMinutes,
		MemoryLimit:           memoryLimit,
		AutoStopOnMemoryLimit: setAutoStopOnMemoryLimit,
	}

	path := configFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	fmt.Printf("Trace settings written to %s\n", path)
	return nil
}
