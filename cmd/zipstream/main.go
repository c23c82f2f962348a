package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "zipstream",
	Short:   "Stream directories as zip archives over HTTP",
	Long: `zipstream serves every directory under an archive root as a zip download.
Archives are produced on the fly by an external zip process and relayed to the
client chunk by chunk, so nothing is buffered or written to disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			files = []string{configFile}
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)

		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "history database: none, sqlite, postgres (default: none, env: ZIPSTREAM_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "history database connection string (default: zipstream.db, env: ZIPSTREAM_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: ZIPSTREAM_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
