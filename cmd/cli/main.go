package main

import (
	"log"

	"github.com/spf13/cobra"

	fedrelay "github.com/absmach/fedrelay"
	"github.com/absmach/fedrelay/cli"
	"github.com/absmach/fedrelay/fedrelayd"
	"github.com/absmach/fedrelay/pkg/sdk"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fedrelay-cli",
		Short: "Fedrelay CLI",
		Long:  `Fedrelay CLI is a command line interface for interacting with Fedrelay components.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			coordinatorURL := fedrelayd.DefCoordinatorURL
			tlsVerification := fedrelayd.DefTLSVerification

			if configPath != "" {
				cfg, err := fedrelay.LoadConfig(configPath)
				if err != nil {
					cmd.PrintErrf("failed to load config: %s\n", err.Error())
				} else {
					if cfg.Coordinator.URL != "" {
						coordinatorURL = cfg.Coordinator.URL
					}
					tlsVerification = cfg.Coordinator.TLSVerification
					cli.SetContributor(cfg.Contributor.ID)
					if cfg.Privacy.Epsilon > 0 {
						cli.SetPrivacyDefaults(cfg.Privacy.Epsilon, cfg.Privacy.Delta, cfg.Privacy.L2NormClip, cfg.Privacy.SampleRate)
					}
				}
			}

			sdkConf := sdk.Config{
				CoordinatorURL:  coordinatorURL,
				TLSVerification: tlsVerification,
			}
			cli.SetFedrelaySDK(sdk.NewSDK(sdkConf))
		},
	}

	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"f",
		"",
		"Path to TOML config file",
	)

	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewPrivacyCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
