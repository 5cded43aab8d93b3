// supportflow - bug report intake API
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"supportflow/internal/analyze"
	"supportflow/internal/api"
	"supportflow/internal/config"
	"supportflow/internal/events"
	"supportflow/internal/llm"
	"supportflow/internal/middleware"
	"supportflow/internal/queue"
	"supportflow/internal/triage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "queue_driver", cfg.QueueDriver)

	registry, err := config.LoadRegistry(cfg.ProjectsFile, "./specs")
	if err != nil {
		slog.Error("Failed to load project registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Project registry loaded", "projects", registry.IDs())

	// Initialize the task queue.
	var taskQueue queue.TaskQueue
	switch cfg.QueueDriver {
	case config.QueueDriverMemory:
		taskQueue = queue.NewMemory()
	default:
		taskQueue, err = queue.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize task queue", "error", err)
			os.Exit(1)
		}
	}
	defer func() {
		if closeErr := taskQueue.Close(); closeErr != nil {
			slog.Error("Failed to close task queue", "error", closeErr)
		}
	}()

	if err := taskQueue.Ping(context.Background()); err != nil {
		slog.Error("Task queue health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Task queue ready")

	// Initialize the model capability and the pipeline services.
	completer := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.LLMTimeout,
	})

	engineCfg := triage.DefaultEngineConfig()
	engineCfg.TextModel = cfg.TriageTextModel
	engineCfg.VisionModel = cfg.TriageVisionModel
	engine := triage.NewEngine(completer, engineCfg)

	analyzer := analyze.New(completer, cfg.AnalysisModel)
	hub := events.NewHub()

	handler := api.NewHandler(engine, analyzer, taskQueue, registry, hub, cfg.PollingSecret)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)
	r.Get("/ws/activity", hub.ServeHTTP)

	// Note: the activity feed holds connections open, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
