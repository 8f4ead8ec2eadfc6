// Package server is the BreatheWise web application: HTML pages, a JSON
// API for guidance generation and a server-sent event stream that drives
// each breathing session.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/alkime/breathewise/internal/catalog"
	"github.com/alkime/breathewise/internal/config"
	"github.com/alkime/breathewise/internal/guide"
	"github.com/alkime/breathewise/internal/store"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the handlers need.
type Deps struct {
	Catalog *catalog.Catalog
	Guide   *guide.Service
	History store.Store
}

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	router   *gin.Engine
	catalog  *catalog.Catalog
	guide    *guide.Service
	history  store.Store
	sessions *Registry
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Configure proxy trust for production (Fly.io)
	if cfg.IsProduction() {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	router.SetHTMLTemplate(template.Must(template.New("pages").ParseFS(templatesFS, "templates/*.tmpl")))

	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.History == nil {
		deps.History = store.NewInMemoryStore()
	}

	server := &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		catalog:  deps.Catalog,
		guide:    deps.Guide,
		history:  deps.History,
		sessions: NewRegistry(deps.History, logger),
	}

	setupSecurityMiddleware(router, cfg, logger)
	setupStaticMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Sessions returns the live session registry.
func (s *Server) Sessions() *Registry {
	return s.sessions
}

// Run serves HTTP until ctx is cancelled, then unmounts every live session
// and shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "port", s.config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")

	// live SSE streams only end once their sessions stop
	s.sessions.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	s.router.GET("/", s.handleHome)
	s.router.GET("/session", s.handleSessionPage)

	api := s.router.Group("/api")
	{
		api.GET("/catalog", s.handleCatalog)
		api.GET("/patterns", s.handlePatterns)
		api.GET("/patterns/:name/timeline", s.handleTimeline)

		api.POST("/story", s.handleStory)
		api.POST("/suggestion", s.handleSuggestion)
		api.POST("/audio", s.handleAudio)
		api.POST("/prepare", s.handlePrepare)

		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions/:id", s.handleGetSession)
		api.GET("/sessions/:id/events", s.handleSessionEvents)
		api.PUT("/sessions/:id/loop", s.handleSetLooping)
		api.POST("/sessions/:id/restart", s.handleRestart)
		api.DELETE("/sessions/:id", s.handleDeleteSession)

		api.GET("/history", s.handleHistory)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "breathewise",
		"sessions": s.sessions.Len(),
	})
}
