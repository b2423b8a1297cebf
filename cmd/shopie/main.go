// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command shopie is the entry point for the Shopie storefront agent.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the session store (Redis, or memory for local runs).
//  4. Restore the persisted session and prime the cart.
//  5. Wire domain services and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	"github.com/taibuivan/shopie/internal/admin"
	"github.com/taibuivan/shopie/internal/api"
	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/cart"
	"github.com/taibuivan/shopie/internal/catalog"
	"github.com/taibuivan/shopie/internal/media"
	"github.com/taibuivan/shopie/internal/order"
	"github.com/taibuivan/shopie/internal/platform/config"
	"github.com/taibuivan/shopie/internal/platform/constants"
	redisstore "github.com/taibuivan/shopie/internal/platform/redis"
	"github.com/taibuivan/shopie/internal/profile"
	"github.com/taibuivan/shopie/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Shopie] agent_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("backend", cfg.BackendBaseURL),
		slog.String("session_store", cfg.SessionStore),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Session Store ──────────────────────────────────────────────────
	var store session.Store
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		store = session.NewRedisStore(rdb, cfg.DeviceID, cfg.SessionTTL)
	default:
		log.Warn("session_store_in_memory", slog.String("reason", "sessions are lost on restart"))
		store = session.NewMemoryStore()
	}

	// ── 4. Session & Cart ─────────────────────────────────────────────────
	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, log)
	manager := session.NewManager(client, store, log)
	synchronizer := cart.NewSynchronizer(manager, log)
	manager.OnChange(synchronizer.HandleSession)

	if restored := manager.Restore(startupCtx); restored.Authenticated() {
		if err := synchronizer.Load(startupCtx); err != nil {
			log.Warn("initial_cart_load_failed", slog.Any("error", err))
		}
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	profiles := profile.NewService(manager, log)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckBackend:      client.Ping,
		CheckSessionStore: manager.Ping,
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Roles:     manager,
		Session:   session.NewHandler(manager),
		Catalog:   catalog.NewHandler(catalog.NewService(manager, log), manager),
		Cart:      cart.NewHandler(synchronizer),
		Orders:    order.NewHandler(order.NewService(manager, synchronizer, profiles, log), manager),
		Profile:   profile.NewHandler(profiles),
		Admin:     admin.NewHandler(admin.NewUsers(manager, log), admin.NewAnalytics(manager), manager),
		Images:    media.NewHandler(media.NewService(manager, cfg.BackendBaseURL, log), manager),
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, handlers)

	// ── 6. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
