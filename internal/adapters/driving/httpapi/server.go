// Package httpapi exposes the ingestion and retrieval services over a
// JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driving"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// Server wires the HTTP routes to the core services.
type Server struct {
	documents driving.DocumentService
	ingestion driving.IngestionService
	retrieval driving.RetrievalService
	completer driven.CompletionService

	engine *gin.Engine
	http   *http.Server
}

// Config holds HTTP server settings.
type Config struct {
	// ListenAddr is the bind address, e.g. ":8080".
	ListenAddr string

	// CORSOrigins lists allowed origins. Empty allows all origins,
	// which suits local single-user deployments.
	CORSOrigins []string
}

// NewServer builds the router. completer may be nil, which disables
// the ask endpoint's answer generation (contexts are still returned).
func NewServer(
	cfg Config,
	documents driving.DocumentService,
	ingestion driving.IngestionService,
	retrieval driving.RetrievalService,
	completer driven.CompletionService,
) *Server {
	s := &Server{
		documents: documents,
		ingestion: ingestion,
		retrieval: retrieval,
		completer: completer,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api/v1")
	{
		api.POST("/upload", s.handleUpload)
		api.GET("/documents", s.handleListDocuments)
		api.GET("/documents/:id/status", s.handleStatus)
		api.DELETE("/documents/:id", s.handleDelete)
		api.POST("/ask", s.handleAsk)
	}

	s.engine = engine
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	logger.Info("http server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
