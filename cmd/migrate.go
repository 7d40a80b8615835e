package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const migrationTable = "schema_migrations"

// migrationCommands are the goose commands exposed through the CLI.
var migrationCommands = []string{"up", "down", "redo", "status", "version"}

var (
	migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|redo|status|version]",
		Short:     "Apply, roll back or inspect the SQL migrations",
		Long:      "Runs goose against the configured database. Without an argument pending migrations are applied.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: migrationCommands,
		RunE:      runMigration,
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration (same as \"down\")")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

// migrationCommand resolves the goose command from the positional argument
// and the legacy --rollback flag.
func migrationCommand(args []string, rollback bool) (string, error) {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	if !slices.Contains(migrationCommands, command) {
		return "", fmt.Errorf("unknown migration command %q", command)
	}
	if rollback {
		if len(args) > 0 && command != "down" {
			return "", fmt.Errorf("--rollback cannot be combined with %q", command)
		}
		command = "down"
	}
	return command, nil
}

func runMigration(cmd *cobra.Command, args []string) error {
	command, err := migrationCommand(args, migrateRollback)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("migrate: open database: %w", err)
	}
	defer db.Close()
	goose.SetTableName(migrationTable)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := goose.RunContext(ctx, command, db, migrateDir); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
