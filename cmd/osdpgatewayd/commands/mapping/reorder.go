package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <reader-id> <plugin-id,plugin-id,...>",
	Short: "Rewrite a reader's plugin execution order",
	Long: `Reorder takes a comma-separated plugin ID list in the new execution
order. Every plugin currently mapped to the reader must be named exactly
once.

Example:
  osdpgatewayd mapping reorder lobby-reader allowlist,audit-log,badge-photo`,
	Args: cobra.ExactArgs(2),
	RunE: runReorder,
}

func runReorder(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	pluginIDs := strings.Split(args[1], ",")
	for i, id := range pluginIDs {
		pluginIDs[i] = strings.TrimSpace(id)
	}

	svc := configsvc.NewMappingService(repo)
	if err := svc.Reorder(context.Background(), args[0], pluginIDs); err != nil {
		return err
	}

	fmt.Println("Mapping order updated")
	return nil
}
