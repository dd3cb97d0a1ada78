package reader

import (
	"context"
	"fmt"
	"os"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/internal/cli/prompt"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a reader",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete reader %q?", args[0]), deleteForce)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(os.Stdout, "Aborted.")
		return nil
	}

	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewReaderConfigService(repo, cliutil.OfflineBus{})
	if err := svc.DeleteReader(context.Background(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Reader %q deleted\n", args[0])
	return nil
}
