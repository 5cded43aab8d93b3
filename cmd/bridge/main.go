// supportflow local bridge - syncs queued tasks into spec folders on disk
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"supportflow/internal/bridge"
	"supportflow/internal/config"
	"supportflow/internal/materialize"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadBridge()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// The sync log is the bridge's only persistent record of what it did;
	// not being able to write it is the one fatal startup condition.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Failed to open sync log file", "error", err, "path", cfg.LogFile)
		os.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, logFile), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	registry, err := config.LoadRegistry(cfg.ProjectsFile, cfg.DefaultSpecsDir)
	if err != nil {
		slog.Error("Failed to load project registry", "error", err)
		os.Exit(1)
	}

	slog.Info("Local bridge starting", "api_url", cfg.APIURL, "interval", cfg.PollInterval)

	// Startup banner: configured projects and whether their roots exist yet.
	for _, id := range registry.IDs() {
		dir := registry.SpecsDir(id)
		if _, statErr := os.Stat(dir); statErr != nil {
			slog.Warn("Project root not found yet", "project", id, "specs_dir", dir)
		} else {
			slog.Info("Project configured", "project", id, "specs_dir", dir)
		}
	}
	slog.Info("Default project root", "specs_dir", registry.DefaultSpecsDir)

	if strings.Contains(cfg.APIURL, "your-app") {
		slog.Warn("API_URL still points at the placeholder; set it to your deployed API", "api_url", cfg.APIURL)
	}

	client := bridge.NewClient(cfg.APIURL, cfg.PollingSecret, cfg.HTTPTimeout)
	mat := materialize.New(registry)
	consumer := bridge.NewConsumer(client, mat, cfg.PollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer.Run(ctx)

	slog.Info("Local bridge stopped")
}
