package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lexiround/internal/config"
	"lexiround/internal/handlers"
	"lexiround/internal/room"
	"lexiround/internal/store"
)

func main() {
	// Load server configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(logger)

	// Optional append-only room log
	var roomLog *store.RoomLog
	if cfg.Server.RoomLogPath != "" {
		roomLog, err = store.OpenRoomLog(cfg.Server.RoomLogPath)
		if err != nil {
			logger.Error("failed to open room log", "path", cfg.Server.RoomLogPath, "error", err)
			os.Exit(1)
		}
		defer roomLog.Close()
		logger.Info("room log enabled", "path", cfg.Server.RoomLogPath)
	}

	registry := store.NewRegistry(store.RegistryOptions{
		ActorOptions: room.Options{
			Logger:           logger,
			CommandQueueSize: cfg.Server.CommandQueueSize,
			SubscriberBuffer: cfg.Server.SubscriberBuffer,
		},
		Logger:  logger,
		RoomLog: roomLog,
	})
	registry.StartSweeper(cfg.Server.SweepInterval)
	defer registry.Close()

	h := handlers.New(registry, cfg, logger)
	r := handlers.SetupRouter(h, cfg, nil)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout, // 0 so push streams stay open
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newLogger builds the process logger from the configured level and format.
func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
