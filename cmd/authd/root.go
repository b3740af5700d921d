package main

import (
	"github.com/spf13/cobra"
)

// configFile is the optional YAML config path shared by all subcommands.
var configFile string

// NewRootCmd creates the root command for authd.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "Account authentication and session service",
		Long: `authd registers accounts, authenticates credentials and issues
short-lived access tokens and revocable refresh tokens over gRPC.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
