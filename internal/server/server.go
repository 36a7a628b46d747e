package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Server wraps the HTTP server and its routes.
type Server struct {
	httpServer *http.Server
}

// NewRouter builds the full route tree with middleware. Split out from New
// so tests can mount it on an httptest.Server.
func NewRouter(cfg Config, dbConn *sql.DB, store RecordStore, blobs BlobStore) http.Handler {
	audit := NewAuditLog(dbConn)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(newRateLimiter(60, time.Minute).middleware)

	r.Get("/", cfg.docsHandler())
	r.Get("/health", healthHandler(dbConn))
	r.Get("/metrics", metricsHandler())

	r.Post("/upload", cfg.uploadHandler(store, blobs, audit))
	r.Get("/download/{code}", cfg.downloadHandler(store, blobs, audit))
	r.Get("/status/{code}", cfg.statusHandler(store))

	return r
}

// New builds a Server serving the relay routes on cfg.Addr.
func New(cfg Config, dbConn *sql.DB, store RecordStore, blobs BlobStore) *Server {
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, dbConn, store, blobs),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
