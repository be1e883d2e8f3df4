// Package server exposes the per-user document QA API over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/registry"
	"github.com/bull/docqa/internal/retrieval"
)

// Server wires the retrieval manager, document registry and answer generator
// behind the HTTP API.
type Server struct {
	manager   *retrieval.Manager
	registry  *registry.Registry
	generator answer.Generator
	uploadDir string
	topK      int
	logger    *slog.Logger
}

// Config collects the dependencies for New.
type Config struct {
	Manager   *retrieval.Manager
	Registry  *registry.Registry
	Generator answer.Generator
	UploadDir string
	TopK      int
	Logger    *slog.Logger
}

// New creates a server. Generator may be nil, in which case /ask is
// unavailable (503) while search still works.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &Server{
		manager:   cfg.Manager,
		registry:  cfg.Registry,
		generator: cfg.Generator,
		uploadDir: cfg.UploadDir,
		topK:      topK,
		logger:    logger,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/users/{user}", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Get("/documents", s.handleList)
		r.Get("/documents/{docID}/file", s.handleDownload)
		r.Delete("/documents/{docID}", s.handleDelete)
		r.Post("/search", s.handleSearch)
		r.Post("/ask", s.handleAsk)
	})

	return r
}
