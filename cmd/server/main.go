package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/loadwizard/internal/config"
	"github.com/JonMunkholm/loadwizard/internal/inspect"
	"github.com/JonMunkholm/loadwizard/internal/logging"
	"github.com/JonMunkholm/loadwizard/internal/metrics"
	"github.com/JonMunkholm/loadwizard/internal/web"
	"github.com/JonMunkholm/loadwizard/internal/wizard"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"session_ttl", cfg.Wizard.SessionTTL,
		"max_sessions", cfg.Wizard.MaxSessions,
	)

	// Column policy: built-in defaults unless a policy file is configured
	policy := wizard.DefaultPolicy()
	if cfg.Wizard.PolicyFile != "" {
		policy, err = wizard.LoadPolicyFile(cfg.Wizard.PolicyFile)
		if err != nil {
			slog.Error("failed to load column policy", "file", cfg.Wizard.PolicyFile, "error", err)
			os.Exit(1)
		}
		slog.Info("column policy loaded",
			"file", cfg.Wizard.PolicyFile,
			"system_columns", len(policy.SystemColumns),
			"type_overrides", len(policy.TypeOverrides),
		)
	}

	sessions := wizard.NewSessions(cfg.Wizard.SessionTTL, cfg.Wizard.MaxSessions)
	inspector := inspect.New(cfg.Inspector.ConnectTimeout, cfg.Inspector.QueryTimeout)
	m := metrics.New()

	server := web.NewServer(cfg.Server, cfg.Security, sessions, inspector, policy, m)

	// Background session sweeper
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go sessions.StartSweeper(jobCtx, cfg.Wizard.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
