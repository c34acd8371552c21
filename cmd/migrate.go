/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/aryanprajapat98/REMS/internal/db"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var migrateDownSteps int

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.MigrateUp(config.LoadConfig())
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (one step by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDownSteps < 1 {
			return errors.New("--steps must be at least 1")
		}
		migrator, err := db.NewMigrator(config.LoadConfig())
		if err != nil {
			return err
		}
		defer func() {
			_, _ = migrator.Close()
		}()

		if err := migrator.Steps(-migrateDownSteps); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				return nil
			}
			return fmt.Errorf("migrate down failed: %w", err)
		}
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrator, err := db.NewMigrator(config.LoadConfig())
		if err != nil {
			return err
		}
		defer func() {
			_, _ = migrator.Close()
		}()

		version, dirty, err := migrator.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			return fmt.Errorf("read version failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)

	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "Number of migrations to roll back")
}
