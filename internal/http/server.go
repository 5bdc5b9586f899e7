package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"finova/internal/auth"
	"finova/internal/feed"
	"finova/internal/log"
	"finova/internal/middleware/ratelimit"
	"finova/internal/middleware/security"
	"finova/internal/middleware/trace"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr              string
	RequestsPerMinute int
}

// Server is the HTTP front of the tracker. It owns the router, the
// middleware chain and graceful shutdown of its helpers.
type Server struct {
	httpServer *http.Server
	authSvc    *auth.Service
	txSvc      TransactionService
	hub        *feed.Hub
	pinger     Pinger
	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	logger     *log.Logger
	started    time.Time
}

func NewServer(cfg Config, authSvc *auth.Service, txSvc TransactionService, hub *feed.Hub, pinger Pinger, logger *log.Logger) *Server {
	s := &Server{
		authSvc: authSvc,
		txSvc:   txSvc,
		hub:     hub,
		pinger:  pinger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		tracer:  trace.NewMiddleware(clientIP),
		logger:  logger.WithComponent(log.ComponentHTTP),
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Handler)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(clientIP))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authSvc.Middleware)

			r.Post("/auth/logout", s.handleLogout)
			r.Post("/auth/change-password", s.handleChangePassword)
			r.Get("/auth/me", s.handleProfile)

			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Put("/transactions/{id}", s.handleUpdateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Get("/transactions/stream", s.handleStream)

			r.Get("/dashboard/summary", s.handleSummary)
			r.Get("/dashboard/categories", s.handleCategories)
			r.Get("/dashboard/monthly", s.handleMonthly)
		})
	})

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections, drains in-flight requests and
// stops the middleware helpers.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
