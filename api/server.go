package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipper-api/api/types"
	"github.com/clipforge/clipper-api/internal/database"
)

// Server represents the HTTP server
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	limits     *RateLimitRegistry

	// Dependencies for handlers
	dependencies *types.Dependencies
}

// NewServer creates a new HTTP server
func NewServer(address string) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		engine: engine,
		limits: NewRateLimitRegistry(),
		httpServer: &http.Server{
			Addr:        address,
			Handler:     engine,
			ReadTimeout: 30 * time.Second,
			// No write timeout: progress streams stay open for the whole
			// pipeline run.
			WriteTimeout:   0,
			IdleTimeout:    30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *database.DB) {
	if s.dependencies == nil {
		s.dependencies = &types.Dependencies{}
	}
	s.dependencies.DB = db
}

// SetDependencies sets all handler dependencies
func (s *Server) SetDependencies(deps *types.Dependencies) {
	s.dependencies = deps
}

// SetRateLimitingEnabled toggles per-client rate limiting. Must be called
// before Initialize.
func (s *Server) SetRateLimitingEnabled(enabled bool) {
	if enabled && s.limits == nil {
		s.limits = NewRateLimitRegistry()
	}
	if !enabled && s.limits != nil {
		s.limits.Close()
		s.limits = nil
	}
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Initialize sets up middleware and routes
func (s *Server) Initialize() error {
	s.setupMiddleware()
	return RegisterRoutes(s.engine, s.dependencies, s.limits)
}

// setupMiddleware configures global middleware
func (s *Server) setupMiddleware() {
	s.engine.Use(gin.Logger())
	s.engine.Use(CORS())
	s.engine.Use(RequestSizeLimit())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limits != nil {
		s.limits.Close()
	}
	return s.httpServer.Shutdown(ctx)
}
