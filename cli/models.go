package cli

import (
	"strconv"
	"strings"

	"github.com/0x6flab/namegenerator"
	"github.com/spf13/cobra"

	"github.com/absmach/fedrelay/pkg/privacy"
	"github.com/absmach/fedrelay/pkg/sdk"
	"github.com/absmach/fedrelay/pkg/weights"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	contributorID string
	epsilon       float64
	delta         float64
	l2NormClip    float64
	sampleRate    float64

	namegen = namegenerator.NewGenerator()
)

var fsdk sdk.SDK

func SetFedrelaySDK(s sdk.SDK) {
	fsdk = s
}

// SetContributor sets the contributor ID used when the flag is not given.
func SetContributor(id string) {
	contributorID = id
}

// SetPrivacyDefaults seeds the privatization flags from a config file. A
// non-positive epsilon leaves local privatization disabled.
func SetPrivacyDefaults(eps, dlt, clip, rate float64) {
	epsilon = eps
	delta = dlt
	l2NormClip = clip
	sampleRate = rate
}

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [submit|view|history]",
		Short: "Global models",
		Long:  `Submit updates to, view and audit federated global models.`,
	}

	submitCmd := &cobra.Command{
		Use:   "submit <model_id> <round> <w1,w2,...>",
		Short: "Submit update",
		Long: `Submit a local weight update for a model round.

Examples:
  # Submit a raw update
  fedrelay-cli models submit mnist 3 0.1,0.2,0.3

  # Privatize the update before it leaves the machine
  fedrelay-cli models submit mnist 3 0.1,0.2,0.3 --epsilon=1.0 --delta=1e-5 --clip=1.0 --sample-rate=0.01`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 3 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			round, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			v, err := parseVector(args[2])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			var params *privacy.Params
			if epsilon > 0 {
				params = &privacy.Params{
					Epsilon:    epsilon,
					Delta:      delta,
					L2NormClip: l2NormClip,
					SampleRate: sampleRate,
				}
			}

			if contributorID == "" {
				contributorID = namegen.Generate()
			}

			receipt, err := fsdk.SubmitUpdate(args[0], round, contributorID, v, params)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, receipt)
		},
	}

	submitCmd.Flags().StringVarP(&contributorID, "contributor", "c", "", "Contributor ID (generated when empty)")
	submitCmd.Flags().Float64Var(&epsilon, "epsilon", 0, "Privacy budget epsilon (0 disables local privatization)")
	submitCmd.Flags().Float64Var(&delta, "delta", 1e-5, "Privacy parameter delta")
	submitCmd.Flags().Float64Var(&l2NormClip, "clip", 1.0, "L2 norm clipping bound")
	submitCmd.Flags().Float64Var(&sampleRate, "sample-rate", 0.01, "Sampling rate per round")

	viewCmd := &cobra.Command{
		Use:   "view <model_id>",
		Short: "View model",
		Long:  `View the current global model state.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := fsdk.GetModel(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <model_id>",
		Short: "Aggregation history",
		Long:  `List aggregation audit records for a model.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.History(args[0], defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(submitCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(historyCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}

func parseVector(s string) (weights.Vector, error) {
	parts := strings.Split(s, ",")
	v := make(weights.Vector, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		v = append(v, float32(f))
	}

	return v, nil
}
