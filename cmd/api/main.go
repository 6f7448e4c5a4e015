package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helpdesk",
		Short: "Helpdesk ticketing service",
		Long:  `Helpdesk serves the ticketing HTTP API and manages its database schema.`,
	}

	serveCmd := newServeCommand()
	// Running the binary without a subcommand serves.
	rootCmd.RunE = serveCmd.RunE

	rootCmd.AddCommand(
		serveCmd,
		newMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
