package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/plannetic/ifaengine/internal/simulation"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/plannetic/ifaengine/internal/stress"
	"github.com/plannetic/ifaengine/internal/validation"
	"github.com/rs/zerolog"
)

// Config holds server configuration. Store may be nil, which disables
// run history. Nil Simulator and Catalog take their defaults.
type Config struct {
	Port               int
	Log                zerolog.Logger
	Store              *store.Store
	Simulator          *simulation.Simulator
	Catalog            *stress.Catalog
	DefaultSimulations int
	DevMode            bool
}

// Server exposes the engines over HTTP.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	port   int

	projector   *projection.Projector
	simulator   *simulation.Simulator
	validator   *validation.Validator
	stress      *stress.Engine
	store       *store.Store
	defaultSims int
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	if cfg.Simulator == nil {
		cfg.Simulator = simulation.NewSimulator(simulation.DefaultConfig())
	}
	if cfg.Catalog == nil {
		cfg.Catalog = stress.DefaultCatalog()
	}
	if cfg.DefaultSimulations <= 0 {
		cfg.DefaultSimulations = domain.DefaultSimulationCount
	}

	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		port:        cfg.Port,
		projector:   projection.NewProjector(),
		simulator:   cfg.Simulator,
		validator:   validation.NewValidator(),
		stress:      stress.NewEngine(cfg.Catalog, cfg.Simulator),
		store:       cfg.Store,
		defaultSims: cfg.DefaultSimulations,
	}
	s.projector.SetLogger(cfg.Log)
	s.simulator.SetLogger(cfg.Log)
	s.stress.SetLogger(cfg.Log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/projections", s.handleProjection)
		r.Post("/monte-carlo", s.handleMonteCarlo)
		r.Post("/stress-tests", s.handleStressTests)
		r.Get("/stress-scenarios", s.handleStressScenarios)

		r.Get("/scenarios/{scenarioID}/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
