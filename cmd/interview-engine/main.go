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

	"github.com/redis/go-redis/v9"

	"github.com/prepview/interview-engine/internal/api"
	"github.com/prepview/interview-engine/internal/catalog"
	"github.com/prepview/interview-engine/internal/cleanup"
	"github.com/prepview/interview-engine/internal/config"
	"github.com/prepview/interview-engine/internal/evaluate"
	"github.com/prepview/interview-engine/internal/exec"
	"github.com/prepview/interview-engine/internal/limiter"
	"github.com/prepview/interview-engine/internal/live"
	"github.com/prepview/interview-engine/internal/room"
	"github.com/prepview/interview-engine/internal/session"
	"github.com/prepview/interview-engine/internal/speech"
	"github.com/prepview/interview-engine/internal/storage"
	"github.com/prepview/interview-engine/internal/upload"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting interview-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"exec_backend", cfg.Exec.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Redis backs the run-code rate limiter; the limiter degrades to
	// allow-all when redis is unreachable.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(initCtx).Err(); err != nil {
		slog.Warn("redis unavailable, rate limiting disabled", "error", err)
		redisClient = nil
	}
	rateLimiter := limiter.New(redisClient, cfg.RateLimit.RunsPerMinute, time.Minute)

	// Initialize code execution engine
	engine, err := exec.New(cfg.Exec, cfg.Docker)
	if err != nil {
		slog.Error("failed to create execution engine", "error", err)
		os.Exit(1)
	}

	// Load interview field catalog
	catalogLoader := catalog.NewLoader()
	if err := catalogLoader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load field catalog", "dir", cfg.Catalog.Dir, "error", err)
	}

	// Upload store for interview recordings
	uploadStore, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		slog.Error("failed to create upload store", "error", err)
		os.Exit(1)
	}

	// Speech and evaluation collaborators (mock providers)
	transcriber := speech.NewMockTranscriber()
	synthesizer := speech.NewMockSynthesizer()
	evaluator := evaluate.NewMockEvaluator()

	// Session lifecycle controller and live channel
	controller := session.NewController(repo, evaluator)
	registry := room.NewRegistry()
	liveHandler := live.NewHandler(registry, controller, engine, transcriber)

	// Idle-session reaper
	reaper := cleanup.NewReaper(controller, cfg.Reaper.Interval, cfg.Reaper.IdleTimeout)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start reaper
	reaper.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, controller, engine, rateLimiter, catalogLoader, uploadStore, synthesizer, liveHandler, repo)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Close execution engine (stops any lingering containers)
	if err := engine.Close(); err != nil {
		slog.Error("engine close error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("interview-engine stopped")
}
