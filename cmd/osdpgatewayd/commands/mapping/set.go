package mapping

import (
	"context"
	"fmt"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/spf13/cobra"
)

var (
	setOrder   int
	setEnabled bool
)

var setCmd = &cobra.Command{
	Use:   "set <reader-id> <plugin-id>",
	Short: "Create or update a reader/plugin mapping",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

func init() {
	setCmd.Flags().IntVar(&setOrder, "order", 0, "Execution order within the reader's chain (1-based)")
	setCmd.Flags().BoolVar(&setEnabled, "enabled", true, "Whether the plugin runs")
	_ = setCmd.MarkFlagRequired("order")
}

func runSet(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewMappingService(repo)
	if err := svc.SetMapping(context.Background(), model.PluginMapping{
		ReaderID:       args[0],
		PluginID:       args[1],
		ExecutionOrder: setOrder,
		Enabled:        setEnabled,
	}); err != nil {
		return err
	}

	fmt.Printf("Mapping %s -> %s saved\n", args[0], args[1])
	return nil
}
