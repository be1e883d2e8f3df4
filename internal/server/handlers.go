package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/registry"
	"github.com/bull/docqa/internal/retrieval"
	"github.com/bull/docqa/internal/store"
)

// maxUploadBytes caps document uploads at 32 MiB.
const maxUploadBytes = 32 << 20

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type searchResponse struct {
	Results []retrieval.Result `json:"results"`
}

type askResponse struct {
	Answer  string             `json:"answer"`
	Results []retrieval.Result `json:"results"`
}

// handleUpload accepts a multipart document upload, registers it, retains the
// raw file and ingests its text into the user's retrieval store. The registry
// row and file are rolled back if ingestion fails.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("missing file field: %v", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	name := filepath.Base(header.Filename)
	text := string(content)
	if strings.HasSuffix(strings.ToLower(name), ".md") {
		text = chunker.PlainText(content)
	}

	doc := registry.Document{
		ID:             uuid.New().String(),
		User:           user,
		Name:           name,
		SizeKB:         len(content) / 1024,
		TotalWords:     len(strings.Fields(text)),
		TotalSentences: strings.Count(text, "."),
		UploadedAt:     time.Now(),
	}

	path := s.uploadPath(user, doc.ID, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("store upload: %v", err))
		return
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("store upload: %v", err))
		return
	}

	if err := s.registry.Add(r.Context(), doc); err != nil {
		os.Remove(path)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("register document: %v", err))
		return
	}

	if err := s.manager.Ingest(r.Context(), user, doc.ID, text); err != nil {
		if rerr := s.registry.Remove(r.Context(), doc.ID); rerr != nil {
			s.logger.Error("rollback registry entry", "doc", doc.ID, "error", rerr)
		}
		os.Remove(path)
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, doc)
}

// handleList returns the user's registered documents.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.registry.List(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []registry.Document{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDownload serves the retained upload.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	doc, ok := s.ownedDocument(w, r, user)
	if !ok {
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	http.ServeFile(w, r, s.uploadPath(user, doc.ID, doc.Name))
}

// handleDelete removes a document from the retrieval store, the registry and
// the upload directory. A document that contributed no chunks has no store
// entry, so a not-found from the store is tolerated once the registry knows
// the document.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	doc, ok := s.ownedDocument(w, r, user)
	if !ok {
		return
	}

	if err := s.manager.Delete(r.Context(), user, doc.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.writeDomainError(w, err)
		return
	}
	if err := s.registry.Remove(r.Context(), doc.ID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := os.Remove(s.uploadPath(user, doc.ID, doc.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove uploaded file", "doc", doc.ID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSearch returns the nearest chunks for a query.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}

	results, err := s.manager.Query(r.Context(), user, req.Query, req.TopK)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []retrieval.Result{}
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// handleAsk retrieves the nearest chunks and generates an answer from them.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.writeError(w, http.StatusServiceUnavailable, "answer generation not configured")
		return
	}
	user := chi.URLParam(r, "user")
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}

	results, err := s.manager.Query(r.Context(), user, req.Query, req.TopK)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	text, err := s.generator.Generate(r.Context(), results, req.Query)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("generate answer: %v", err))
		return
	}
	if results == nil {
		results = []retrieval.Result{}
	}
	s.writeJSON(w, http.StatusOK, askResponse{Answer: text, Results: results})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ownedDocument loads the document from the registry and verifies it belongs
// to the user in the request path. Writes the error response itself when the
// lookup fails.
func (s *Server) ownedDocument(w http.ResponseWriter, r *http.Request, user string) (*registry.Document, bool) {
	doc, err := s.registry.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeDomainError(w, err)
		return nil, false
	}
	if doc.User != user {
		s.writeError(w, http.StatusNotFound, "document not registered")
		return nil, false
	}
	return doc, true
}

func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "query must not be empty")
		return req, false
	}
	if req.TopK <= 0 {
		req.TopK = s.topK
	}
	return req, true
}

func (s *Server) uploadPath(user, docID, name string) string {
	return filepath.Join(s.uploadDir, url.PathEscape(user), docID+"_"+name)
}

// writeDomainError maps retrieval-layer errors to status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicateDocument):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, registry.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, embedding.ErrProvider):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, retrieval.ErrInconsistentStore):
		s.logger.Error("store consistency violation", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		s.logger.Error("encode error response", "error", err)
	}
}
