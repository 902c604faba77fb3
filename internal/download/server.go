// Package download serves the rendered summary documents of the active
// session over HTTP.
package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
	"github.com/anatolykoptev/go_tubenotes/internal/render"
	"github.com/anatolykoptev/go_tubenotes/internal/session"
)

// Source yields the current rendered documents. *session.Store satisfies it.
type Source interface {
	Rendered() (*render.Rendered, error)
}

// Kinds accepted by /download/{kind}.
const (
	KindMarkdown = "markdown"
	KindDocx     = "docx"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Server is the download HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds a server on addr (host:port).
func NewServer(addr string, src Source, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(src, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting download server", slog.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down download server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// NewRouter wires the download routes. Both routes return the same memoized
// bytes for the same session state.
func NewRouter(src Source, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware(logger))
	r.Use(loggingMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/download/{kind}", downloadHandler(src))
	r.Get("/files/{name}", fileHandler(src))
	return r
}

func pick(rd *render.Rendered, kind string) (render.Artifact, bool) {
	switch strings.ToLower(kind) {
	case KindMarkdown, "md":
		return rd.Markdown, true
	case KindDocx, "word":
		return rd.Docx, true
	}
	return render.Artifact{}, false
}

func downloadHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rd, ok := rendered(w, src)
		if !ok {
			return
		}
		a, ok := pick(rd, chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be markdown or docx", "BAD_REQUEST")
			return
		}
		serveArtifact(w, a)
	}
}

func fileHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rd, ok := rendered(w, src)
		if !ok {
			return
		}
		name := chi.URLParam(r, "name")
		for _, a := range []render.Artifact{rd.Markdown, rd.Docx} {
			if a.Name == name {
				serveArtifact(w, a)
				return
			}
		}
		writeError(w, http.StatusNotFound, "no such file for the current video", "NOT_FOUND")
	}
}

func rendered(w http.ResponseWriter, src Source) (*render.Rendered, bool) {
	rd, err := src.Rendered()
	switch {
	case err == nil:
		return rd, true
	case errors.Is(err, session.ErrNoVideo), errors.Is(err, engine.ErrNoSummary):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		writeError(w, http.StatusInternalServerError, "render failed", "INTERNAL_ERROR")
	}
	return nil, false
}

func serveArtifact(w http.ResponseWriter, a render.Artifact) {
	h := w.Header()
	h.Set("Content-Type", a.MIMEType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			id, _ := r.Context().Value(requestIDKey).(string)
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", id),
			)
		})
	}
}

func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					id, _ := r.Context().Value(requestIDKey).(string)
					logger.Error("panic recovered", slog.Any("error", rec), slog.String("request_id", id))
					writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
