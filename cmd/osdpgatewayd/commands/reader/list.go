package reader

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

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured readers",
	Long: `List every configured reader.

Examples:
  osdpgatewayd reader list
  osdpgatewayd reader list -o json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

type readerList []*model.Reader

func (rl readerList) Headers() []string {
	return []string{"ID", "NAME", "PORT", "BAUD", "ADDRESS", "SECURITY", "ENABLED"}
}

func (rl readerList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, r := range rl {
		rows = append(rows, []string{
			r.ID, r.Name, r.Port, fmt.Sprintf("%d", r.Baud), fmt.Sprintf("%d", r.Address),
			string(r.SecurityMode), boolToYesNo(r.Enabled),
		})
	}
	return rows
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runList(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := configsvc.NewReaderConfigService(repo, cliutil.OfflineBus{})
	readers, err := svc.ListReaders(context.Background())
	if err != nil {
		return err
	}

	if len(readers) == 0 {
		fmt.Println("No readers configured.")
		return nil
	}
	return output.Format(os.Stdout, listOutput, readerList(readers), readers)
}
