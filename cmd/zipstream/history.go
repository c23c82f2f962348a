package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/config"
	"github.com/sagarc03/zipstream/database"
)

var (
	historyArchive string
	historyLimit   int
	historyCursor  string
	historyJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded archive downloads",
	Long: `List recorded archive downloads, most recent first.

Requires a history database (--db-type sqlite or postgres).

Examples:
  zipstream history --db-type sqlite
  zipstream history --archive a1b2c3 --limit 10
  zipstream history --cursor "MjAyNi0wMy0wMVQ..."`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyArchive, "archive", "", "only show downloads of this archive")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "max results per page (max: 1000)")
	historyCmd.Flags().StringVar(&historyCursor, "cursor", "", "pagination cursor")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output JSON")

	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history database. The caller must close it.
func openHistory(ctx context.Context) (database.Database, error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	if !cfg.Database.Enabled() {
		return nil, fmt.Errorf("download history: %w (set --db-type)", zipstream.ErrHistoryDisabled)
	}

	return database.Open(ctx, cfg.Database)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if historyArchive != "" && !zipstream.IsValidArchiveName(historyArchive) {
		return fmt.Errorf("invalid archive name %q: %w", historyArchive, zipstream.ErrInvalidInput)
	}

	db, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	result, err := db.GetRepo().List(ctx, zipstream.ListQuery{
		Archive: historyArchive,
		Limit:   max(1, min(1000, historyLimit)),
		Cursor:  historyCursor,
	})
	if err != nil {
		if errors.Is(err, zipstream.ErrInvalidInput) {
			return fmt.Errorf("invalid cursor: %w", err)
		}
		return fmt.Errorf("list downloads: %w", err)
	}

	return NewFormatter(historyJSON).FormatHistory(os.Stdout, result)
}
