package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func NewPrivacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privacy [estimate]",
		Short: "Privacy accounting",
		Long:  `Estimate cumulative privacy cost over a training run.`,
	}

	estimateCmd := &cobra.Command{
		Use:   "estimate <epsilon> <delta> <iterations> <sample_rate>",
		Short: "Estimate cost",
		Long: `Estimate the composed privacy cost of repeated noisy releases.

Example:
  fedrelay-cli privacy estimate 1.0 1e-5 100 0.01`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 4 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			eps, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			dlt, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			iters, err := strconv.Atoi(args[2])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			rate, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			cost, err := fsdk.EstimateCost(eps, dlt, iters, rate)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, cost)
		},
	}

	cmd.AddCommand(estimateCmd)

	return cmd
}
