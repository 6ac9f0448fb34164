// Command graylogic-audio-mcp serves receiver control as MCP tools over
// stdio. It shares the service's configuration and device database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-audio/migrations"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
	"github.com/nerrad567/gray-logic-audio/internal/device"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/logging"
	audiomcp "github.com/nerrad567/gray-logic-audio/internal/mcp"
)

var version = "dev"

const (
	serviceName       = "graylogic-audio-mcp"
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "GRAYLOGIC_AUDIO_CONFIG"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (default: $"+configEnvVar+" or "+defaultConfigPath+")")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, resolveConfigPath(*configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigPath prefers the flag, then the environment, then the default.
func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logging must go to stderr; stdout is the MCP transport.
	log := logging.NewWithWriter(cfg.Logging, serviceName, version, os.Stderr)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database opened", "path", db.Path())

	records := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	records.SetLogger(log)

	service, err := sony.NewService(sony.ServiceOptions{
		Store:        device.NewRecordStore(records),
		Port:         cfg.Audio.Port,
		Path:         cfg.Audio.Path,
		Timeout:      cfg.Audio.RequestTimeout(),
		ProbeZones:   cfg.Audio.ProbeZones,
		PollInterval: cfg.Audio.PollEvery(),
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("creating device service: %w", err)
	}
	defer service.Close()

	if err := service.Restore(ctx); err != nil {
		return fmt.Errorf("restoring devices: %w", err)
	}
	service.Start(ctx)

	srv := audiomcp.NewServer(service.Registry(), version)
	srv.SetAuditor(audit.NewRecorder(audit.NewSQLiteRepository(db.DB), log))
	log.Info("starting MCP server on stdio", "devices", service.Registry().Len())

	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}
