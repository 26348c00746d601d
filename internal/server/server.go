package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BlackMission/workosauth/internal/handler"
	"github.com/BlackMission/workosauth/internal/metrics"
	"github.com/BlackMission/workosauth/internal/session"
	"github.com/BlackMission/workosauth/internal/strategy"
)

// Config holds the server configuration.
type Config struct {
	Host         string
	Port         int
	RequestPath  string
	CallbackPath string
	FailurePath  string
}

// Deps holds the service dependencies.
type Deps struct {
	Strategy *strategy.Strategy
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// New creates a new Server with all routes wired.
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		loggingMiddleware(logger),
		middleware.Recoverer,
	)

	r.Get("/health", handler.Health())
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get(cfg.FailurePath, handler.Failure())

	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware)

		request := handler.Request(deps.Strategy, deps.Metrics, cfg.FailurePath, logger)
		r.Get(cfg.RequestPath, request)
		r.Post(cfg.RequestPath, request)

		callback := handler.Callback(deps.Strategy, deps.Metrics, cfg.FailurePath, logger)
		r.Get(cfg.CallbackPath, callback)
		r.Post(cfg.CallbackPath, callback)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		handler: r,
		logger:  logger,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening and serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("workosauth listening", "addr", s.httpServer.Addr)
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			// Query strings carry codes and state tokens; only the path is logged.
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
