// Package web exposes the REST surface over the record store and mounts
// the GraphQL handler.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fieldsense/ndvistore/internal/domain"
	"github.com/fieldsense/ndvistore/internal/store"
)

const defaultMaxUpload = 50 << 20 // 50 MB, matching the upload form limit

// RecordStore is the subset of the record store the REST handlers use.
type RecordStore interface {
	Create(ctx context.Context, in store.CreateInput) (*domain.NDVIMap, error)
	List(ctx context.Context, opts store.ListOptions) ([]*domain.NDVIMap, error)
	GetByID(ctx context.Context, id string, owner *domain.Owner) (*domain.NDVIMap, error)
	Update(ctx context.Context, id string, owner *domain.Owner, in store.UpdateInput) (*domain.NDVIMap, error)
	Delete(ctx context.Context, id string, owner *domain.Owner) error
}

// Pinger reports backing-store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	store     RecordStore
	pinger    Pinger
	mode      domain.OwnerMode
	maxUpload int64
	logger    *slog.Logger
	router    chi.Router
}

type Options struct {
	Store          RecordStore
	Pinger         Pinger
	Mode           domain.OwnerMode
	MaxUploadBytes int64
	AllowedOrigins []string
	GraphQL        http.Handler
	Logger         *slog.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		pinger:    opts.Pinger,
		mode:      opts.Mode,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/ndvi-maps", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
	if opts.GraphQL != nil {
		r.Handle("/graphql", opts.GraphQL)
	}

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
