package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/absmach/fedrelay/fedrelayd"
)

func main() {
	cfg, err := fedrelayd.LoadEnvConfig()
	if err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := fedrelayd.StartCoordinator(ctx, cancel, cfg); err != nil {
		slog.Error("coordinator service exited with error", slog.String("error", err.Error()))
	}
}
