// Package server exposes the HTTP API: company registration, task, note,
// and document tracking, and the market-research endpoints.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/config"
	"github.com/sells-group/research-hub/internal/monitoring"
	"github.com/sells-group/research-hub/internal/research"
	"github.com/sells-group/research-hub/internal/store"
)

// Server holds the handler dependencies.
type Server struct {
	store   store.Store
	runner  *research.Runner
	metrics *monitoring.Collector
	tokens  *TokenService
	cfg     config.ServerConfig
}

// New creates a Server.
func New(st store.Store, runner *research.Runner, metrics *monitoring.Collector, cfg config.ServerConfig) *Server {
	return &Server{
		store:   st,
		runner:  runner,
		metrics: metrics,
		tokens:  NewTokenService(cfg.AuthSecret),
		cfg:     cfg,
	}
}

// Tokens exposes the token service so the CLI can mint tokens.
func (s *Server) Tokens() *TokenService {
	return s.tokens
}

// Router builds the route tree. Everything under /api requires a valid
// bearer token.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.tokens.Middleware)

		r.Get("/metrics", s.handleMetrics)

		r.Route("/companies", func(r chi.Router) {
			r.Post("/", s.handleCreateCompany)
			r.Get("/", s.handleListCompanies)

			r.Route("/{companyID}", func(r chi.Router) {
				r.Get("/", s.handleGetCompany)
				r.Put("/", s.handleUpdateCompany)
				r.Delete("/", s.handleDeleteCompany)

				r.Route("/tasks", func(r chi.Router) {
					r.Post("/", s.handleCreateTask)
					r.Get("/", s.handleListTasks)
					r.Get("/{taskID}", s.handleGetTask)
					r.Put("/{taskID}", s.handleUpdateTask)
					r.Delete("/{taskID}", s.handleDeleteTask)
				})

				r.Route("/notes", func(r chi.Router) {
					r.Post("/", s.handleCreateNote)
					r.Get("/", s.handleListNotes)
					r.Put("/{noteID}", s.handleUpdateNote)
					r.Delete("/{noteID}", s.handleDeleteNote)
				})

				r.Route("/documents", func(r chi.Router) {
					r.Post("/", s.handleUploadDocument)
					r.Get("/", s.handleListDocuments)
					r.Get("/{documentID}", s.handleDownloadDocument)
					r.Delete("/{documentID}", s.handleDeleteDocument)
				})

				r.Route("/market-research", func(r chi.Router) {
					r.Post("/", s.handleStartResearch)
					r.Get("/", s.handleGetResearch)
					r.Patch("/", s.handleUpdateResearch)
				})
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
