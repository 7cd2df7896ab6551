package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
	backendimpl "github.com/voxlane/apptvoice/external/backend"
	configloader "github.com/voxlane/apptvoice/external/config"
	gatewayimpl "github.com/voxlane/apptvoice/external/gateway"
	repositoryimpl "github.com/voxlane/apptvoice/external/repository"
	roomimpl "github.com/voxlane/apptvoice/external/room"
	"github.com/voxlane/apptvoice/internal/config"
	"github.com/voxlane/apptvoice/internal/session"
)

const sessionStartTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found; using process environment")
	}

	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "avatar_mode", cfg.AvatarMode, "archive_enabled", cfg.ArchiveEnabled())

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching client")
	runClient(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	backendimpl.RegisterDI(injector)
	roomimpl.RegisterDI(injector)
	gatewayimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func runClient(injector do.Injector) {
	manager, err := do.Invoke[*session.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve session manager", "error", err)
		os.Exit(1)
	}
	server, err := do.Invoke[*gatewayimpl.Server](injector)
	if err != nil {
		slog.Error("failed to resolve gateway server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := server.Run(); err != nil {
			slog.Error("gateway server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sessionStartTimeout)
	defer cancel()

	slog.Info("startup: starting session")
	if err := manager.Start(ctx); err != nil {
		slog.Error("session start failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: session running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
		manager.Stop()
	case <-manager.Done():
		slog.Info("session ended")
	}
	slog.Info("shutdown complete")
}
