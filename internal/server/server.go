// Package server exposes matching over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/assess"
	"github.com/sells-group/shell-match/internal/config"
	"github.com/sells-group/shell-match/internal/pipeline"
	"github.com/sells-group/shell-match/internal/store"
	"github.com/sells-group/shell-match/pkg/salesforce"
)

// ServiceName is reported by /api and /health.
const ServiceName = "Customer to Shell Account Matching API"

// Version of the HTTP API.
const Version = "2.0.0"

// Deps are the collaborators the handlers use. Salesforce, Assessor and
// Store may be nil when not configured.
type Deps struct {
	Config     *config.Config
	Pipeline   *pipeline.Pipeline
	Salesforce salesforce.Client
	Assessor   *assess.Assessor
	Store      store.Store
}

// Server serves the matching API.
type Server struct {
	deps   Deps
	router chi.Router
}

// New builds the router.
func New(deps Deps) *Server {
	if deps.Config == nil {
		deps.Config = &config.Config{}
	}
	s := &Server{deps: deps}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.deps.Config.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if secs := s.deps.Config.Server.RequestTimeout; secs > 0 {
		r.Use(middleware.Timeout(time.Duration(secs) * time.Second))
	}

	r.Get("/api", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Get("/debug-config", s.handleDebugConfig)
	r.Get("/test-salesforce-connection", s.handleTestSalesforce)
	r.Get("/test-llm-connection", s.handleTestLLM)

	r.Route("/excel", func(r chi.Router) {
		r.Post("/parse", s.handleParseExcel)
		r.Post("/parse-customer-file", s.handleParseIDFile(salesforce.KindCustomer))
		r.Post("/parse-shell-file", s.handleParseIDFile(salesforce.KindShell))
	})
	r.Post("/matching/process-batch", s.handleProcessBatch)
	r.Post("/export/matching-results", s.handleExport)

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
		r.Delete("/{id}", s.handleDeleteRun)
		r.Get("/{id}/export", s.handleExportRun)
	})
	return r
}

// ListenAndServe serves on the configured port until ctx is done, then
// drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	zap.L().Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
