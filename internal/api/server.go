package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelichko/studycheck/internal/auth"
	"github.com/avelichko/studycheck/internal/config"
	"github.com/avelichko/studycheck/internal/metrics"
	"github.com/avelichko/studycheck/internal/report"
	"github.com/avelichko/studycheck/internal/storage"
)

// ObjectStore is the slice of the object storage client the API uses.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// OCRClient recognizes text on images via the external OCR service.
type OCRClient interface {
	Recognize(ctx context.Context, image []byte, contentType string) (string, error)
}

// Server is the HTTP API server for studycheck.
type Server struct {
	router   chi.Router
	store    *storage.DB
	tokens   *auth.TokenManager
	objects  ObjectStore
	ocr      OCRClient
	renderer *report.Renderer
	metrics  *metrics.Metrics
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. objects and ocrClient
// may be nil; the dependent endpoints then degrade gracefully.
func NewServer(
	store *storage.DB,
	tokens *auth.TokenManager,
	objects ObjectStore,
	ocrClient OCRClient,
	registry *prometheus.Registry,
	log *slog.Logger,
	cfg config.Config,
) *Server {
	s := &Server{
		store:    store,
		tokens:   tokens,
		objects:  objects,
		ocr:      ocrClient,
		renderer: report.NewRenderer(),
		metrics:  metrics.New(registry),
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes(registry)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes(registry *prometheus.Registry) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log, s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Post("/api/register", s.handleRegister)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/refresh", s.handleRefresh)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.tokens, s.log))

		r.Post("/api/logout", s.handleLogout)
		r.Get("/api/profile", s.handleGetProfile)
		r.Put("/api/profile", s.handleUpdateProfile)
		r.Delete("/api/profile", s.handleDeleteProfile)

		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/analyze-multiple", s.handleAnalyzeMultiple)
		r.Post("/api/analyze-screenshots", s.handleAnalyzeScreenshots)

		r.Get("/api/my-uploads", s.handleMyUploads)
		r.Get("/api/upload/{uploadID}/details", s.handleUploadDetails)
		r.Delete("/api/upload/{uploadID}", s.handleDeleteUpload)
		r.Get("/api/upload/{uploadID}/download-url", s.handleDownloadURL)

		// Admin-only endpoints.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(storage.RoleAdmin))

			r.Get("/api/users", s.handleListUsers)
			r.Put("/api/users/{userID}/role", s.handleUpdateUserRole)
			r.Delete("/api/users/{userID}", s.handleDeleteUser)
			r.Get("/api/all-analyses", s.handleAllAnalyses)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
