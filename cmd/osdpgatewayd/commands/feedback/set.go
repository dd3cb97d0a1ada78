package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/osdpgw/gateway/cmd/osdpgatewayd/cliutil"
	"github.com/osdpgw/gateway/pkg/configsvc"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/spf13/cobra"
)

var (
	successColor    string
	successDuration time.Duration
	successBeeps    int
	failureColor    string
	failureDuration time.Duration
	failureBeeps    int
	idlePermanent   string
	idleHeartbeat   string
	idleEvery       time.Duration
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the feedback configuration",
	Long: `Set replaces the entire feedback record. Flags that are not given
take their default values, which are the built-in feedback defaults.

Example:
  osdpgatewayd feedback set --success-color green --success-beeps 1 \
    --failure-color red --failure-beeps 3 --idle-permanent amber`,
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringVar(&successColor, "success-color", string(model.LEDGreen), "Success LED color")
	setCmd.Flags().DurationVar(&successDuration, "success-duration", time.Second, "Success LED duration")
	setCmd.Flags().IntVar(&successBeeps, "success-beeps", 1, "Success beep count")
	setCmd.Flags().StringVar(&failureColor, "failure-color", string(model.LEDRed), "Failure LED color")
	setCmd.Flags().DurationVar(&failureDuration, "failure-duration", 2*time.Second, "Failure LED duration")
	setCmd.Flags().IntVar(&failureBeeps, "failure-beeps", 3, "Failure beep count")
	setCmd.Flags().StringVar(&idlePermanent, "idle-permanent", string(model.LEDBlue), "Idle-state permanent LED color")
	setCmd.Flags().StringVar(&idleHeartbeat, "idle-heartbeat", string(model.LEDGreen), "Idle-state heartbeat LED color")
	setCmd.Flags().DurationVar(&idleEvery, "idle-every", 5*time.Second, "Idle-state heartbeat interval")
}

func runSet(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	_, repo, err := cliutil.OpenRepo(configFile)
	if err != nil {
		return err
	}
	defer repo.Close()

	cfg := model.FeedbackConfig{
		Success: model.ReaderFeedback{
			Type:        model.FeedbackSuccess,
			LEDColor:    model.LEDColor(successColor),
			LEDDuration: successDuration,
			BeepCount:   successBeeps,
		},
		Failure: model.ReaderFeedback{
			Type:        model.FeedbackFailure,
			LEDColor:    model.LEDColor(failureColor),
			LEDDuration: failureDuration,
			BeepCount:   failureBeeps,
		},
		Idle: model.IdleStateFeedback{
			PermanentColor: model.LEDColor(idlePermanent),
			HeartbeatColor: model.LEDColor(idleHeartbeat),
			HeartbeatEvery: idleEvery,
		},
	}

	svc := configsvc.NewFeedbackConfigService(repo)
	if err := svc.Set(context.Background(), cfg); err != nil {
		return err
	}

	fmt.Println("Feedback configuration updated")
	return nil
}
