package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/config"
	"github.com/sagarc03/zipstream/database"
	"github.com/sagarc03/zipstream/filesystem"
	zipstreamhttp "github.com/sagarc03/zipstream/http"
	"github.com/sagarc03/zipstream/metrics"
	"github.com/sagarc03/zipstream/process"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the zipstream HTTP server.

GET /archive/<name>/ streams <root>/<name> as <name>.zip. Directories that do
not exist answer 404. GET / serves the index page.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("root", "", "archive root directory (env: ZIPSTREAM_ARCHIVE_ROOT)")
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().String("index-file", "", "serve this file instead of the built-in index page")
	serveCmd.Flags().Bool("throttle", false, "pause between chunks (stream.delay)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	logger := slog.Default()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Archive.Root == "" {
		return errors.New("archive root is required (--root or ZIPSTREAM_ARCHIVE_ROOT)")
	}

	rootDir, err := filepath.Abs(cfg.Archive.Root)
	if err != nil {
		return fmt.Errorf("resolve archive root: %w", err)
	}

	root, err := os.OpenRoot(rootDir)
	if err != nil {
		return fmt.Errorf("open archive root: %w", err)
	}
	defer func() { _ = root.Close() }()

	var repo zipstream.DownloadRepo
	if cfg.Database.Enabled() {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		repo = db.GetRepo()
		logger.Info("connected to database", "type", cfg.Database.Type)
	}

	streamCfg := zipstream.StreamConfig{
		ChunkSize: cfg.Stream.ChunkSize,
		Grace:     cfg.Stream.Grace,
	}
	if cfg.Stream.Throttle {
		streamCfg.Delay = cfg.Stream.Delay
	}

	service, err := zipstream.NewArchiveService(
		filesystem.NewDirectoryStore(root, rootDir),
		process.NewSpawner(cfg.Archive.Command),
		repo,
		zipstream.ServiceConfig{
			Stream:        streamCfg,
			RecordTimeout: cfg.Service.RecordTimeout,
			Logger:        logger,
		},
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	var indexHTML []byte
	if cfg.Server.IndexFile != "" {
		indexHTML, err = os.ReadFile(cfg.Server.IndexFile)
		if err != nil {
			return fmt.Errorf("read index file: %w", err)
		}
	}

	handlerConfig := zipstreamhttp.HandlerConfig{
		StallTimeout: cfg.Stream.StallTimeout,
		IndexHTML:    indexHTML,
		History:      repo != nil,
		CORS:         cfg.CORS,
		Logger:       logger,
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		handlerConfig.Metrics = metrics.NewStreamMetrics(reg)
		handlerConfig.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	handler := zipstreamhttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// Request contexts derive from ctx, so cancelling it kills every running
	// archiver. Downloads are long lived; the per-chunk stall timeout bounds
	// writes instead of WriteTimeout.
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		// Aborted downloads still kill, reap and record before their
		// handlers return, and Shutdown waits for those handlers.
		cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	}()

	logger.Info("starting server", "addr", addr, "root", rootDir, "history", repo != nil)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-shutdownDone
	return nil
}
