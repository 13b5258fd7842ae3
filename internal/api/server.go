// Package api serves the retrieval operations over HTTP for local tooling
// and the web UI-less curl workflow.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/notes"
	"github.com/memvault/memvault/internal/reconcile"
	"github.com/memvault/memvault/internal/search"
	"github.com/rs/cors"
)

type APIServer struct {
	cfg        *config.Config
	engine     *search.Engine
	reconciler *reconcile.Reconciler
	server     *http.Server
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type SearchRequest struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
	Sections []string `json:"sections,omitempty"`
	Since    int64    `json:"since,omitempty"`
	Until    int64    `json:"until,omitempty"`
	Store    string   `json:"store,omitempty"`
}

type WriteNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Store   string `json:"store,omitempty"`
}

func NewAPIServer(cfg *config.Config, engine *search.Engine, reconciler *reconcile.Reconciler) *APIServer {
	return &APIServer{
		cfg:        cfg,
		engine:     engine,
		reconciler: reconciler,
	}
}

func (s *APIServer) Start() error {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", s.handleSearch).Methods("POST")
	api.HandleFunc("/recent", s.handleRecent).Methods("GET")
	api.HandleFunc("/entry", s.handleReadEntry).Methods("GET")
	api.HandleFunc("/notes", s.handleWriteNote).Methods("POST")
	api.HandleFunc("/reindex", s.handleReindex).Methods("POST")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.server = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      c.Handler(s.loggingMiddleware(router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	logger.Info("HTTP API listening on %s", s.cfg.ListenAddr)
	return s.server.ListenAndServe()
}

func (s *APIServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *APIServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("HTTP %s %s from %s (%v)",
			r.Method, r.URL.Path, r.RemoteAddr, time.Since(start).Round(time.Microsecond))
	})
}

func (s *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	opts := search.DefaultOptions()
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	if req.MinScore != nil {
		// An explicit zero asks for no threshold at all.
		if *req.MinScore == 0 {
			opts.MinScore = search.MinScoreNone
		} else {
			opts.MinScore = *req.MinScore
		}
	}
	opts.Sections = req.Sections
	opts.Since = req.Since
	opts.Until = req.Until
	if req.Store != "" {
		opts.Type = config.StoreType(req.Store)
	}

	results, err := s.engine.Search(r.Context(), req.Query, opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

func (s *APIServer) handleRecent(w http.ResponseWriter, r *http.Request) {
	opts := search.DefaultOptions()
	q := r.URL.Query()
	if limit := q.Get("limit"); limit != "" {
		fmt.Sscanf(limit, "%d", &opts.Limit)
	}
	if since := q.Get("since"); since != "" {
		fmt.Sscanf(since, "%d", &opts.Since)
	}
	if until := q.Get("until"); until != "" {
		fmt.Sscanf(until, "%d", &opts.Until)
	}
	if st := q.Get("store"); st != "" {
		opts.Type = config.StoreType(st)
	}

	results, err := s.engine.ListRecent(opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

func (s *APIServer) handleReadEntry(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "missing 'path' query parameter")
		return
	}

	content, found, err := s.engine.ReadEntry(path)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no note at %s", path))
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: content})
}

func (s *APIServer) handleWriteNote(w http.ResponseWriter, r *http.Request) {
	var req WriteNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Title == "" || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	storeType := config.StoreProject
	if req.Store != "" {
		storeType = config.StoreType(req.Store)
	}
	root, ok := s.cfg.StoreRoot(storeType)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid store %q", req.Store))
		return
	}

	notePath, err := notes.Write(root, req.Title, req.Content, time.Now())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := s.reconciler.IndexNote(r.Context(), notePath); err != nil {
		logger.Error("Failed to index note %s: %v", notePath, err)
	}

	s.writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: notePath})
}

func (s *APIServer) handleReindex(w http.ResponseWriter, r *http.Request) {
	created := s.reconciler.ReconcileAll(r.Context(), s.cfg.ProjectNotesDir, s.cfg.UserNotesDir)
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]int{"created": created}})
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: "ok"})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{Success: false, Error: msg})
}
