// Package server wires the application together and runs the HTTP server.
//
// This is the composition root: the one place where the store, services,
// providers and handlers are constructed and connected. Everything below it
// receives its dependencies through constructors — there are no package-level
// singletons anywhere in the app.
//
// Dependency chain:
//
//	config.Config → sqlstore.DB → services → handlers → routes
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/avasilyev/commentboard/internal/auth"
	"github.com/avasilyev/commentboard/internal/config"
	"github.com/avasilyev/commentboard/internal/handler"
	"github.com/avasilyev/commentboard/internal/middleware"
	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/repository/sqlstore"
	"github.com/avasilyev/commentboard/internal/service"
)

// Server owns the router, the configuration, and the database connection.
// The connection is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqlstore.DB
}

// New builds the full application from a configuration.
//
// The store is selected here: DATABASE_URL set → Postgres, otherwise the
// local SQLite file. The rest of the wiring is identical either way — the
// services only ever see the repository interfaces.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.EnsureDBDir(); err != nil {
		return nil, err
	}

	driver, dsn := sqlstore.DriverSQLite, cfg.DBPath
	if cfg.UsesPostgres() {
		driver, dsn = sqlstore.DriverPostgres, cfg.DatabaseURL
	}

	db, err := sqlstore.New(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Info("database ready", slog.String("driver", driver))

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds the dependency graph and attaches every route.
//
// Route map:
//
//	GET  /                  → feed page (newest first)
//	GET  /login/{provider}  → redirect to the provider's authorize URL
//	GET  /auth/{provider}   → OAuth callback: log the user in
//	POST /comment           → post a comment (no-op when anonymous or blank)
//	GET  /logout            → clear the session
//	GET  /api/comments      → feed as JSON
//	GET  /api/me            → session user as JSON (401 when anonymous)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.SecretKey)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	providers, err := s.buildProviders()
	if err != nil {
		return err
	}

	authService := service.NewAuthService(s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.logger)

	feedHandler, err := handler.NewFeedHandler(s.config.TemplateDir, commentService, authService, s.logger)
	if err != nil {
		return fmt.Errorf("creating feed handler: %w", err)
	}
	authHandler := handler.NewAuthHandler(providers, tokens, authService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)

	// HTML routes. OptionalAuth so the feed knows who is visiting and the
	// comment handler can turn anonymous POSTs into redirects instead of 401s.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", feedHandler.HandleFeed)
		r.Post("/comment", commentHandler.HandlePost)
	})

	s.router.Get("/login/{provider}", authHandler.HandleLogin)
	s.router.Get("/auth/{provider}", authHandler.HandleCallback)
	s.router.Get("/logout", authHandler.HandleLogout)

	// JSON API.
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/comments", commentHandler.HandleList)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	return nil
}

// buildProviders constructs the OAuth providers from the configured
// credentials. Providers with no client ID are skipped with a warning so the
// app still runs when only one of the two is registered.
func (s *Server) buildProviders() (map[string]*auth.Provider, error) {
	clients := map[string]config.OAuthClient{
		model.ProviderGitHub: s.config.GitHub,
		model.ProviderYandex: s.config.Yandex,
	}

	providers := make(map[string]*auth.Provider, len(clients))
	for name, client := range clients {
		if client.ID == "" {
			s.logger.Warn("OAuth provider not configured; its login route will 400",
				slog.String("provider", name),
			)
			continue
		}
		p, err := auth.NewProvider(name, client.ID, client.Secret, s.config.CallbackURL(name))
		if err != nil {
			return nil, fmt.Errorf("creating %s provider: %w", name, err)
		}
		providers[name] = p
	}

	return providers, nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database (flushes the SQLite WAL, releases the lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.BaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
