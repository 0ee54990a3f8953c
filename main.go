package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/giygas/israeldrugs-mcp/config"
	"github.com/giygas/israeldrugs-mcp/engine"
	"github.com/giygas/israeldrugs-mcp/handlers"
	"github.com/giygas/israeldrugs-mcp/health"
	"github.com/giygas/israeldrugs-mcp/logging"
	"github.com/giygas/israeldrugs-mcp/mcpserver"
	"github.com/giygas/israeldrugs-mcp/registry"
	"github.com/giygas/israeldrugs-mcp/scheduler"
	"github.com/giygas/israeldrugs-mcp/server"
	"github.com/giygas/israeldrugs-mcp/validation"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol in stdio mode
	console := os.Stdout
	if cfg.IsStdio() {
		console = os.Stderr
	}
	logging.InitLogger(logging.Options{
		Dir:            "logs",
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
		Console:        console,
	})
	defer logging.Shutdown()

	logging.Info("Starting israeldrugs service",
		"version", version,
		"transport", string(cfg.Transport),
		"env", cfg.Env,
		"registry", cfg.RegistryBaseURL)

	client := registry.NewClient(registry.Options{
		BaseURL:       cfg.RegistryBaseURL,
		Timeout:       cfg.RegistryTimeout,
		MaxRetries:    cfg.RegistryMaxRetries,
		RatePerSecond: cfg.RegistryRatePerSec,
		Burst:         cfg.RegistryBurst,
	})
	searchEngine := engine.New(client, validation.NewInputValidator(), engine.Options{
		MaxResults:   cfg.MaxResults,
		SuggestLimit: cfg.SuggestLimit,
	})

	probeInterval := time.Duration(cfg.ProbeIntervalMinutes) * time.Minute
	healthChecker := health.NewHealthChecker(client.BreakerState, probeInterval)
	probe := scheduler.NewScheduler(client, healthChecker, probeInterval)
	if err := probe.Start(); err != nil {
		logging.Error("Failed to start registry probe", "error", err)
		os.Exit(1)
	}
	defer probe.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsStdio() {
		if err := mcpserver.Run(ctx, mcpserver.NewServer(searchEngine, version)); err != nil {
			logging.Error("MCP server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	httpServer := server.NewServer(cfg, handlers.NewHTTPHandler(searchEngine, healthChecker))
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Shutdown did not complete cleanly", "error", err)
	}
}

// loadEnv reads .env from the working directory, then from the executable's
// directory. A missing file is fine: the environment may already be set.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	ex, err := os.Executable()
	if err != nil {
		slog.Warn("Failed to get executable path", "error", err)
		return
	}
	exPath := filepath.Dir(ex)
	if err := godotenv.Load(filepath.Join(exPath, ".env")); err == nil {
		if err := os.Chdir(exPath); err != nil {
			slog.Warn("Failed to change directory", "error", err)
		}
	}
}
