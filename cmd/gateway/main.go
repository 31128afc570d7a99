package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cascadebackend "github.com/anti-api/gateway/internal/backend/cascade"
	cloudbackend "github.com/anti-api/gateway/internal/backend/cloud"

	cloudapi "github.com/anti-api/gateway/internal/api/cloud"
	"github.com/anti-api/gateway/internal/config"
	"github.com/anti-api/gateway/internal/credential"
	"github.com/anti-api/gateway/internal/discovery"
	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/frontdoor"
	"github.com/anti-api/gateway/internal/leakfilter"
	"github.com/anti-api/gateway/internal/server"
	"github.com/anti-api/gateway/internal/storage"
	"github.com/anti-api/gateway/internal/storage/memory"
	"github.com/anti-api/gateway/internal/storage/sqlite"
	"github.com/anti-api/gateway/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("antigravity-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open account store: %v", err)
	}
	defer store.Close()

	oauth := credential.NewOAuthClient(credential.DefaultOAuthConfig)
	manager := credential.NewManager(store, oauth, credential.WithLogger(logger))
	if err := manager.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load credential: %v", err)
	}

	var cloudOpts []cloudapi.ClientOption
	if len(cfg.Cloud.BaseURLs) > 0 {
		cloudOpts = append(cloudOpts, cloudapi.WithBaseURLs(cfg.Cloud.BaseURLs))
	}
	if cfg.Cloud.UserAgent != "" {
		cloudOpts = append(cloudOpts, cloudapi.WithUserAgent(cfg.Cloud.UserAgent))
	}

	cloud := cloudbackend.New(manager,
		cloudbackend.WithClient(cloudapi.NewClient(cloudOpts...)),
		cloudbackend.WithLogger(logger),
	)

	locator := discovery.Chain{
		discovery.Static{Port: cfg.Cascade.Port, CSRFToken: cfg.Cascade.CSRFToken},
		discovery.Env{},
		discovery.File{},
	}
	interval, timeout := cfg.Cascade.PollingDurations(time.Second, 2*time.Minute)
	cascade := cascadebackend.New(locator, domain.StaticToken(cfg.Cascade.Token), leakfilter.New(),
		cascadebackend.WithLogger(logger),
		cascadebackend.WithPolling(interval, timeout),
	)

	backends := map[string]domain.Backend{
		cloud.Name():   cloud,
		cascade.Name(): cascade,
	}

	handler := frontdoor.NewHandler(backends, cloud.Name(), cloudbackend.KnownModels(), logger)
	authHandler := frontdoor.NewAuthHandler(manager, oauth, logger)

	srv := server.New(cfg.Server.Port, logger)
	srv.Router.Post("/v1/messages", handler.HandleMessages)
	srv.Router.Get("/v1/models", handler.HandleListModels)
	srv.Router.Get("/auth/status", authHandler.HandleStatus)
	srv.Router.Get("/auth/login", authHandler.HandleLoginURL)
	srv.Router.Post("/auth/login", authHandler.HandleLogin)
	srv.Router.Post("/auth/logout", authHandler.HandleLogout)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case sig := <-sigChan:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
}

func openStore(cfg config.StorageConfig) (storage.AccountStore, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	default:
		return sqlite.New(cfg.SQLite.Path)
	}
}
