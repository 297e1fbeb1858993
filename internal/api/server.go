package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oligame1/friendly-parakeet/internal/config"
	"github.com/oligame1/friendly-parakeet/internal/pipeline"
	"github.com/oligame1/friendly-parakeet/internal/synth"
)

// Server is the HTTP surface: JSON analysis API plus a small HTML front end.
type Server struct {
	router   chi.Router
	analyzer *pipeline.Analyzer
	offline  *pipeline.Analyzer
	stats    *synth.Stats
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. offline is the analyzer
// backed by the mock generator, used when a request overrides the model to
// "mock"; pass nil when the configured model already is the mock.
func NewServer(analyzer, offline *pipeline.Analyzer, stats *synth.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		analyzer: analyzer,
		offline:  offline,
		stats:    stats,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleHome)
	r.Post("/analyze", s.handleAnalyzeForm)

	// API endpoints, bearer-protected when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Post("/api/analyze", s.handleAnalyze)
		r.Get("/api/stats/synth", s.handleSynthStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// analyzerFor resolves the optional per-request model override. Only the
// configured model and the offline mock are served.
func (s *Server) analyzerFor(model string) (*pipeline.Analyzer, error) {
	switch model {
	case "", s.cfg.Model:
		return s.analyzer, nil
	case synth.ModelMock:
		if s.offline != nil {
			return s.offline, nil
		}
		return s.analyzer, nil
	}
	return nil, fmt.Errorf("model %q is not available, use %q or %q", model, s.cfg.Model, synth.ModelMock)
}
