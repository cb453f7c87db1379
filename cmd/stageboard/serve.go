package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/stageboard/internal/artnet"
	"github.com/fentz26/stageboard/internal/board"
	"github.com/fentz26/stageboard/internal/broadcast"
	"github.com/fentz26/stageboard/internal/clock"
	"github.com/fentz26/stageboard/internal/config"
	"github.com/fentz26/stageboard/internal/metrics"
	"github.com/fentz26/stageboard/internal/refresh"
	"github.com/fentz26/stageboard/internal/schedule"
	"github.com/fentz26/stageboard/internal/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	listenAddr string
	stageName  string
	sourceKind string
	dbPath     string
	debugLog   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stage board server",
	Long: `Starts the board server: loads the schedule from the configured source,
refreshes it periodically, and serves the HTTP and WebSocket API for
operators and viewers.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&stageName, "stage", "", "Stage name (overrides config)")
	serveCmd.Flags().StringVar(&sourceKind, "source", "", "Schedule source: static or sqlite (overrides config)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	serveCmd.Flags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if debugLog {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if stageName != "" {
		cfg.StageName = stageName
	}
	if sourceKind != "" {
		cfg.Source.Kind = sourceKind
	}
	if dbPath != "" {
		cfg.Source.DBPath = dbPath
	}

	src, cleanup, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	clk := clock.New()
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	store := schedule.NewStore(clk)
	bcast := broadcast.New(logger)
	service := board.NewService(store, clk, bcast, src, cfg.StageName, logger, met)

	// Initial load; a failure here is non-fatal and leaves an empty board
	// for the refresh loop to fill in.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.RefreshTimeout.Duration())
	if err := service.Refresh(startupCtx); err != nil {
		logger.Warn("initial schedule load failed", "error", err)
	}
	startupCancel()

	loop := refresh.NewLoop(service, cfg.RefreshInterval.Duration(), cfg.RefreshTimeout.Duration(), logger)
	loop.Start()
	defer loop.Stop()

	if cfg.ArtNet.Enabled {
		listener := artnet.NewListener(
			cfg.ArtNet.Port, cfg.ArtNet.Universe,
			cfg.ArtNet.ChannelHigh, cfg.ArtNet.ChannelLow,
			service.SetBrightness, logger,
		)
		if err := listener.Start(); err != nil {
			return fmt.Errorf("start artnet listener: %w", err)
		}
		defer listener.Stop()
	}

	server := board.NewServer(service, cfg.Listen, logger, reg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// buildSource constructs the configured schedule source. The static source
// seeds itself with the stock schedule; the sqlite source seeds its
// database on first run.
func buildSource(cfg config.Config, logger *slog.Logger) (source.Source, func(), error) {
	switch cfg.Source.Kind {
	case "", "static":
		return source.NewStatic(source.DefaultSchedule(time.Now())), func() {}, nil
	case "sqlite":
		db, err := source.OpenSQLite(cfg.Source.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open schedule db: %w", err)
		}
		seeded, err := db.Seed(context.Background(), source.DefaultSchedule(time.Now()))
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("seed schedule db: %w", err)
		}
		if seeded {
			logger.Info("seeded schedule database", "path", cfg.Source.DBPath)
		}
		return db, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
