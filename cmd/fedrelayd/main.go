package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/absmach/fedrelay/fedrelayd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fedrelayd",
		Short: "Fedrelay Daemon",
		Long:  `Fedrelay Daemon is a daemon that manages the lifecycle of Fedrelay components.`,
	}

	coordinatorCmd := fedrelayd.NewCoordinatorCmd()

	rootCmd.AddCommand(coordinatorCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
