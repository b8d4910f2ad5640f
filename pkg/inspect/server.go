package inspect

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/stream"
)

// Config configures the inspector.
type Config struct {
	// Gatherer serves /metrics. If nil, /metrics is not mounted.
	Gatherer prometheus.Gatherer

	// Logger logs requests and hub activity (default: slog.Default()).
	Logger *slog.Logger

	// NavigateTimeout bounds how long /navigate and /start wait for the
	// transition (default: 10s).
	NavigateTimeout time.Duration
}

// Option configures the inspector.
type Option func(*Config)

// WithGatherer mounts /metrics for g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Config) {
		c.Gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithNavigateTimeout sets how long transitions are awaited.
func WithNavigateTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.NavigateTimeout = d
	}
}

func defaultConfig() Config {
	return Config{
		Logger:          slog.Default(),
		NavigateTimeout: 10 * time.Second,
	}
}

// Server is the inspector HTTP handler.
type Server struct {
	config Config
	mux    chi.Router

	mu     sync.RWMutex
	router *router.Router
	source *stream.Source
	hub    *stream.Hub
}

// New creates an inspector for r.
func New(r *router.Router, opts ...Option) *Server {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{config: config}
	s.SetRouter(r)
	s.mux = s.routes()
	return s
}

// SetRouter swaps the inspected router. Websocket clients of the previous
// router are disconnected.
func (s *Server) SetRouter(r *router.Router) {
	hub := stream.NewHub(r, s.config.Logger)

	s.mu.Lock()
	old := s.hub
	s.router = r
	s.source = stream.NewSource(r)
	s.hub = hub
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Router returns the inspected router.
func (s *Server) Router() *router.Router {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

func (s *Server) current() (*router.Router, *stream.Source, *stream.Hub) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router, s.source, s.hub
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	_, _, hub := s.current()
	hub.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/routes", s.handleRoutes)
	r.Get("/match", s.handleMatch)
	r.Get("/build/{name}", s.handleBuild)
	r.Get("/plan", s.handlePlan)
	r.Get("/state", s.handleState)
	r.Post("/start", s.handleStart)
	r.Post("/navigate", s.handleNavigate)
	r.Post("/stop", s.handleStop)
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		_, _, hub := s.current()
		hub.ServeHTTP(w, req)
	})
	if s.config.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.config.Logger.Debug("inspect request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
