package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/config"
	"github.com/sagarc03/zipstream/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the download history tables",
	Long: `Create the download history tables and indexes if they are missing,
then check that the schema matches what zipstream expects.

serve does this on startup unless database.auto_migrate is false. Use this
command when the server runs with a database user that cannot create tables.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	if !cfg.Database.Enabled() {
		return fmt.Errorf("migrate: %w (set --db-type)", zipstream.ErrHistoryDisabled)
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	slog.Info("migrating database", "type", cfg.Database.Type, "table", cfg.Database.Tables.Downloads)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err := db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("migration complete")
	return nil
}
