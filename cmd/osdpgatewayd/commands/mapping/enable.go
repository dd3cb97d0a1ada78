package mapping

import (
	"context"
	"fmt"
	"strconv"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <reader-id> <plugin-id> <true|false>",
	Short: "Enable or disable a single mapping without changing its order",
	Args:  cobra.ExactArgs(3),
	RunE:  runEnable,
}

func runEnable(cmd *cobra.Command, args []string) error {
	enabled, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("third argument must be true or false: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewMappingService(repo)
	if err := svc.SetEnabled(context.Background(), args[0], args[1], enabled); err != nil {
		return err
	}

	fmt.Printf("Mapping %s -> %s enabled=%v\n", args[0], args[1], enabled)
	return nil
}
