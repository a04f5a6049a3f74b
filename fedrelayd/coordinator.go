package fedrelayd

import (
	"context"
	"os"

	"github.com/absmach/supermq/pkg/server"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/absmach/fedrelay/coordinator"
)

var (
	DefTLSVerification = false
	DefCoordinatorURL  = "http://localhost:7070"
)

var coordinatorCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start coordinator",
		Long:  `Start coordinator.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg, err := LoadEnvConfig()
			if err != nil {
				cmd.PrintErrf("failed to load configuration: %s", err.Error())

				return
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			if err := StartCoordinator(ctx, cancel, cfg); err != nil {
				cmd.PrintErrf("failed to start coordinator: %s", err.Error())
			}
			cancel()
		},
	},
}

func NewCoordinatorCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "coordinator [start]",
		Short: "Coordinator management",
		Long:  `Run the aggregation coordinator.`,
	}

	for i := range coordinatorCmd {
		cmd.AddCommand(&coordinatorCmd[i])
	}

	return &cmd
}

// LoadEnvConfig assembles the full runtime configuration from the process
// environment, loading .env first when present.
func LoadEnvConfig() (Config, error) {
	if _, err := os.Stat(PathEnv); err == nil {
		_ = godotenv.Load(PathEnv)
	}

	ec := EnvConfig{}
	if err := env.Parse(&ec); err != nil {
		return Config{}, err
	}

	if ec.InstanceID == "" {
		ec.InstanceID = uuid.NewString()
	}

	agg := coordinator.Config{}
	if err := env.ParseWithOptions(&agg, env.Options{Prefix: EnvPrefixService}); err != nil {
		return Config{}, err
	}

	srv := server.Config{Port: DefHTTPPort}
	if err := env.ParseWithOptions(&srv, env.Options{Prefix: EnvPrefixHTTP}); err != nil {
		return Config{}, err
	}

	return ec.ServiceConfig(agg, srv), nil
}
