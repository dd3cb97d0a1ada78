package mapping

import (
	"context"
	"fmt"
	"os"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/internal/cli/output"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <reader-id>",
	Short: "List the plugin chain attached to a reader, in execution order",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

type mappingList []*model.PluginMapping

func (ml mappingList) Headers() []string { return []string{"ORDER", "PLUGIN", "ENABLED"} }

func (ml mappingList) Rows() [][]string {
	rows := make([][]string, 0, len(ml))
	for _, m := range ml {
		enabled := "no"
		if m.Enabled {
			enabled = "yes"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", m.ExecutionOrder), m.PluginID, enabled})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewMappingService(repo)
	mappings, err := svc.ListForReader(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(mappings) == 0 {
		fmt.Println("No plugins mapped to this reader.")
		return nil
	}
	return output.PrintTable(os.Stdout, mappingList(mappings))
}
