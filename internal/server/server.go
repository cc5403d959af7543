// Package server exposes the query layer as a JSON pass-through API for
// the site frontend. Handlers hold no state of their own; everything is
// answered from the query service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	ierr "github.com/davidgrier/inkwell/internal/errors"
	"github.com/davidgrier/inkwell/internal/query"
)

// Server is the HTTP API over the query service.
type Server struct {
	svc      *query.Service
	feedPath string
	log      *slog.Logger
}

// New creates a Server. feedPath is where the generated syndication
// document is persisted.
func New(svc *query.Service, feedPath string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, feedPath: feedPath, log: log}
}

// Router assembles the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		// Slugs may contain slashes (nested content directories), so the
		// post subtree is a wildcard dispatched by suffix.
		r.Get("/posts/*", s.handlePostSubtree)
		r.Get("/search", s.handleSearch)
		r.Get("/tags", s.handleListTags)
		r.Get("/tags/{tag}", s.handlePostsByTag)
		r.Post("/rebuild", s.handleRebuild)
	})
	r.Get("/feed.xml", s.handleFeed)
	r.Get("/healthz", s.handleHealth)

	return r
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.svc.GetAllPosts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, posts)
}

// handlePostSubtree dispatches /api/posts/{slug} and
// /api/posts/{slug}/adjacent, where slug may contain slashes.
func (s *Server) handlePostSubtree(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")
	if slug, ok := strings.CutSuffix(rest, "/adjacent"); ok {
		s.handleAdjacent(w, r, slug)
		return
	}
	s.handleGetPost(w, r, rest)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, slug string) {
	post, ok, err := s.svc.GetPost(r.Context(), slug)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeNotFound(w, "post not found")
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleAdjacent(w http.ResponseWriter, r *http.Request, slug string) {
	adj, ok, err := s.svc.GetAdjacentPosts(r.Context(), slug)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeNotFound(w, "post not found")
		return
	}
	s.writeJSON(w, http.StatusOK, adj)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.GetAllTags(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handlePostsByTag(w http.ResponseWriter, r *http.Request) {
	posts, err := s.svc.GetPostsByTag(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.RebuildCache(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	// The feed is regenerated on every rebuild; make sure a snapshot
	// exists before serving the file.
	if _, err := s.svc.GetAllPosts(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	http.ServeFile(w, r, s.feedPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeNotFound(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusNotFound, errorBody{Error: msg})
}

// writeError maps structured errors onto HTTP statuses: invalid queries
// are the caller's fault, everything else is a server-side failure.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := ierr.GetCode(err)
	status := http.StatusInternalServerError
	if code == ierr.ErrCodeInvalidQuery {
		status = http.StatusBadRequest
	}
	s.log.Error("request failed",
		slog.String("code", code),
		slog.String("error", err.Error()))
	s.writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// logRequests is a minimal structured access log.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}
