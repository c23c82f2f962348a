package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	pruneOlderThan time.Duration
	pruneJSON      bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old download records",
	Long: `Permanently delete download records that started before a cutoff.

Run this periodically to keep the history database small.

Examples:
  zipstream prune --db-type sqlite
  zipstream prune --older-than 168h`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 720*time.Hour, "delete records older than this")
	pruneCmd.Flags().BoolVar(&pruneJSON, "json", false, "output JSON")

	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if pruneOlderThan <= 0 {
		return errors.New("--older-than must be positive")
	}

	db, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	before := time.Now().UTC().Add(-pruneOlderThan)

	slog.Info("pruning download history", "before", before)

	deleted, err := db.GetRepo().Prune(ctx, before)
	if err != nil {
		return fmt.Errorf("prune downloads: %w", err)
	}

	slog.Info("prune complete", "deleted", deleted)
	return NewFormatter(pruneJSON).FormatPrune(os.Stdout, deleted, before)
}
