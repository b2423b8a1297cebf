// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It is the composition root of the agent API served to the UI shell.
  - Only this package and cmd/shopie are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/shopie/internal/admin"
	"github.com/taibuivan/shopie/internal/cart"
	"github.com/taibuivan/shopie/internal/catalog"
	"github.com/taibuivan/shopie/internal/media"
	"github.com/taibuivan/shopie/internal/order"
	"github.com/taibuivan/shopie/internal/platform/config"
	"github.com/taibuivan/shopie/internal/platform/constants"
	"github.com/taibuivan/shopie/internal/platform/middleware"
	"github.com/taibuivan/shopie/internal/profile"
	"github.com/taibuivan/shopie/internal/session"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler; always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; 200 when the backend and session store answer.
	Readiness http.HandlerFunc

	// Roles exposes the current session's role to the access middleware.
	Roles middleware.RoleSource

	Session *session.Handler
	Catalog *catalog.Handler
	Cart    *cart.Handler
	Orders  *order.Handler
	Profile *profile.Handler
	Admin   *admin.Handler
	Images  *media.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := NewRouter(ctx, cfg, log, h)

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// NewRouter builds the agent's route tree.
func NewRouter(ctx context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/session", h.Session.Routes())
		api.Mount("/images", h.Images.Routes())
		api.Mount("/admin", h.Admin.Routes())

		// Everything below needs a signed-in user; refusing here saves a backend round trip.
		api.Group(func(signedIn chi.Router) {
			signedIn.Use(middleware.RequireSession(h.Roles))
			signedIn.Mount("/catalog", h.Catalog.Routes())
			signedIn.Mount("/cart", h.Cart.Routes())
			signedIn.Mount("/orders", h.Orders.Routes())
			signedIn.Mount("/profile", h.Profile.Routes())
		})
	})

	return r
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
