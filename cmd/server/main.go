// Package main is the entry point for the comment board server.
//
// main stays minimal: build the logger, load the configuration, start the
// server. Everything else lives in internal/ packages so it can be
// constructed and tested without a process boundary.
package main

import (
	"log/slog"
	"os"

	"github.com/avasilyev/commentboard/internal/config"
	"github.com/avasilyev/commentboard/internal/server"
)

func main() {
	// Config isn't loaded yet, so bootstrap at Info and rebuild the logger
	// once we know whether DEBUG is set.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server shuts down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
