// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it opens the store, builds the
// services and handlers, and decides which middleware runs on which routes.
// main only loads configuration and calls New and Start.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlite.DB ─┐
//	                TokenService, PasswordService, OTPGenerator, Notifier, Metrics
//	                           └→ AuthService / UserService → AuthHandler / UserHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/account-auth/internal/auth"
	"github.com/sakif/account-auth/internal/config"
	"github.com/sakif/account-auth/internal/handler"
	"github.com/sakif/account-auth/internal/metrics"
	"github.com/sakif/account-auth/internal/middleware"
	"github.com/sakif/account-auth/internal/notify"
	sqliteRepo "github.com/sakif/account-auth/internal/repository/sqlite"
	"github.com/sakif/account-auth/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get after a stop signal.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection; Start closes it on the way out.
// Callers that never call Start must call Close.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *metrics.Metrics
}

// New creates a Server from a validated configuration.
//
// notifier may be nil, in which case one is chosen from cfg.SMTP: an
// SMTPNotifier when a host is set, otherwise a LogNotifier.
func New(cfg config.Config, logger *slog.Logger, notifier notify.Notifier) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWT.Secret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if notifier == nil {
		notifier = NewNotifier(cfg.SMTP, logger)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
	}

	authService := service.NewAuthService(
		db,
		tokens,
		auth.NewPasswordService(),
		auth.NewOTPGenerator(),
		notifier,
		s.metrics,
		logger,
	)
	userService := service.NewUserService(db, logger)

	s.setupRoutes(tokens, authService, userService)
	return s, nil
}

// NewNotifier picks the mail transport for cfg.
func NewNotifier(cfg config.SMTPConfig, logger *slog.Logger) notify.Notifier {
	if cfg.Host == "" {
		logger.Warn("no SMTP host configured, emails will be logged instead of sent")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Sender:   cfg.Sender,
		Timeout:  cfg.Timeout,
	}, logger)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST /api/auth/register         → create account, set cookie
//	POST /api/auth/login            → check credentials, set cookie
//	POST /api/auth/logout           → clear cookie
//	POST /api/auth/send-verify-otp  → email verification code   [session]
//	POST /api/auth/verify-account   → consume verification code [session]
//	POST /api/auth/send-reset-otp   → email reset code
//	POST /api/auth/reset-password   → consume reset code
//	GET  /api/auth/is-auth          → session probe              [session]
//	GET  /api/user/data             → name + verification state [session]
//	GET  /healthz                   → store reachability
//	GET  /metrics                   → Prometheus (when enabled)
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print it; Recoverer sits inside the
// logger so a recovered panic is still logged as a 500; CORS answers
// preflight requests before any handler runs.
func (s *Server) setupRoutes(tokens *auth.TokenService, authService *service.AuthService, userService *service.UserService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	cookies := auth.NewCookieConfig(s.config.Production(), tokens.TTL())
	guard := auth.NewSessionGuard(tokens, handler.WriteError, s.logger)
	authHandler := handler.NewAuthHandler(authService, cookies, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Post("/send-verify-otp", guard.Require(authHandler.HandleSendVerifyOTP))
			r.Post("/verify-account", guard.Require(authHandler.HandleVerifyAccount))
			r.Post("/send-reset-otp", authHandler.HandleSendResetOTP)
			r.Post("/reset-password", authHandler.HandleResetPassword)
			r.Get("/is-auth", guard.Require(authHandler.HandleIsAuth))
		})
		r.Get("/user/data", guard.Require(userHandler.HandleUserData))
	})
}

// handleHealth reports 200 when the store answers a ping within 2s.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it itself.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start listens on the configured port and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.config.HTTP.Port))
	if err != nil {
		s.Close()
		return fmt.Errorf("listening on port %d: %w", s.config.HTTP.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then shuts down
// gracefully:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close the database
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DB.Path),
		)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		<-serverErrors
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
