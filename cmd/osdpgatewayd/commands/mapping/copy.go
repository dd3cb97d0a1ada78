package mapping

import (
	"context"
	"fmt"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy <from-reader-id> <to-reader-id>",
	Short: "Duplicate a reader's entire plugin chain onto another reader",
	Args:  cobra.ExactArgs(2),
	RunE:  runCopy,
}

func runCopy(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewMappingService(repo)
	if err := svc.CopyMappings(context.Background(), args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Copied mapping chain from %s to %s\n", args[0], args[1])
	return nil
}
