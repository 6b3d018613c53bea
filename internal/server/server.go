package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drowse/internal/api"
	"drowse/internal/metrics"
	"drowse/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the timeout for reading request headers.
	DefaultReadHeaderTimeout = 5 * time.Second
	// DefaultWriteTimeout bounds a response, including a synchronous wake.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	Address    string
	MCPEnabled bool
	Version    string
}

// Server is the REST, metrics and MCP front door of the controller.
type Server struct {
	http       *http.Server
	controller api.Controller
	registry   *prometheus.Registry

	listener net.Listener
	errCh    chan error
}

// New builds the router and registers the Prometheus collectors on a
// dedicated registry.
func New(cfg Config, controller api.Controller) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewCollector(controller),
	)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	s := &Server{
		controller: controller,
		registry:   reg,
		errCh:      make(chan error, 1),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logRequests)
	r.Use(httpMetrics.Middleware)

	h := &handlers{controller: controller}
	r.Get("/health", h.health)
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.listServices)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.getService)
			r.Post("/start", h.lifecycle(controller.StartService))
			r.Post("/stop", h.lifecycle(controller.StopService))
			r.Post("/sleep", h.lifecycle(controller.SleepService))
			r.Post("/wake", h.lifecycle(controller.WakeService))
			r.Post("/wake-request", h.wakeRequest)
			r.Post("/access", h.recordAccess)
			r.Get("/metrics", h.serviceMetrics)
			r.Get("/prediction", h.prediction)
		})
	})
	r.Get("/metrics/performance", h.performanceMetrics)
	r.Get("/metrics/system", h.systemMetrics)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	if cfg.MCPEnabled {
		mcpServer := NewMCPServer(controller, cfg.Version)
		r.Handle("/mcp", mcpserver.NewStreamableHTTPServer(mcpServer))
	}

	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start binds the listen address and serves in the background. Serve errors
// are delivered on Err.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.listener = l
	logging.Info("HTTP", "HTTP server listening on %s", l.Addr())

	go func() {
		if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
		close(s.errCh)
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.http.Addr
	}
	return s.listener.Addr().String()
}

// Err receives a serve error, or is closed after a clean shutdown.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	logging.Info("HTTP", "HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
