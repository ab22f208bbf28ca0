package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/dmukit/internal/config"
	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/dgallion1/dmukit/internal/pipeline"
	"github.com/dgallion1/dmukit/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Rows is the read side of the DMU table. *store.DB implements it.
type Rows interface {
	List(ctx context.Context) ([]store.Row, error)
	Get(ctx context.Context, id int64) (*store.Row, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	ListImports(ctx context.Context, limit int) ([]store.Import, error)
}

// Server is the HTTP API server for the DMU table.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	rows         Rows
	styles       dmu.Classifier
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, rows Rows, styles dmu.Classifier, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		rows:         rows,
		styles:       styles,
		log:          log,
		cfg:          cfg,
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/dmu/import", s.handleImport)
		r.Post("/api/dmu/import/batch", s.handleBatchImport)
		r.Get("/api/dmu/import/{jobID}/status", s.handleImportStatus)
		r.Get("/api/dmu/imports", s.handleListImports)
		r.Post("/api/dmu/keys", s.handleKeys)

		r.Get("/api/dmu", s.handleListRows)
		r.Get("/api/dmu/tree", s.handleTree)
		r.Get("/api/dmu/export.{format}", s.handleExport)
		r.Get("/api/dmu/{id}", s.handleGetRow)
		r.Delete("/api/dmu/{id}", s.handleDeleteRow)

		r.Get("/api/stats/imports", s.handleImportStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
