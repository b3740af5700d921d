package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/and161185/goph-auth/internal/config"
	"github.com/and161185/goph-auth/internal/migrate"
)

var errNoDSN = errors.New("migrate: db.dsn is required")

// NewMigrateCmd creates the migrate subcommand with up and status.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := migrationDSN()
			if err != nil {
				return err
			}
			cmd.Println("Running migrations...")
			if err := migrate.Up(cmd.Context(), dsn); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := migrationDSN()
			if err != nil {
				return err
			}
			ver, err := migrate.Status(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			cmd.Printf("schema version: %d\n", ver)
			return nil
		},
	})
	return cmd
}

func migrationDSN() (string, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return "", err
	}
	if cfg.DB.DSN == "" {
		return "", errNoDSN
	}
	return cfg.DB.DSN, nil
}
