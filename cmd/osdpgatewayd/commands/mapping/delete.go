package mapping

import (
	"context"
	"fmt"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/internal/cli/prompt"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <reader-id> <plugin-id>",
	Short: "Remove a mapping",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete mapping %s -> %s?", args[0], args[1]), deleteForce)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Aborted.")
		return nil
	}

	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewMappingService(repo)
	if err := svc.DeleteMapping(context.Background(), args[0], args[1]); err != nil {
		return err
	}

	fmt.Println("Mapping deleted")
	return nil
}
