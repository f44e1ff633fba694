// Package server exposes the hook endpoint, document uploads and the admin
// calls over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tonimelisma/spsync/internal/admin"
	"github.com/tonimelisma/spsync/internal/hooks"
	"github.com/tonimelisma/spsync/internal/jobs"
	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/internal/sharepoint"
)

const shutdownTimeout = 10 * time.Second

// FileHook handles file events from the host.
type FileHook interface {
	FileAfterInsert(ctx context.Context, evt hooks.FileEvent) (string, error)
}

// DocumentUploader uploads a whole document bundle.
type DocumentUploader interface {
	UploadDocument(ctx context.Context, doctype, docname string) (sharepoint.UploadResult, error)
}

// AdminService answers the discovery calls.
type AdminService interface {
	TestConnection(ctx context.Context) (admin.SiteSummary, error)
	ListSites(ctx context.Context) ([]admin.SiteSummary, error)
	SiteDrives(ctx context.Context, siteID string) ([]admin.DriveSummary, error)
	DriveFolders(ctx context.Context, driveID, path string) ([]admin.FolderSummary, error)
	FetchSiteDetails(ctx context.Context, siteURL string) (admin.SiteDetails, error)
}

// StatsSource reports job queue counters for the health check.
type StatsSource interface {
	Stats() jobs.Stats
}

// Deps are the services behind the routes. Nil services leave their routes
// unregistered. A non-empty APIToken is required on every /api route.
type Deps struct {
	Hooks     FileHook
	Documents DocumentUploader
	Admin     AdminService
	Jobs      StatsSource
	Logger    logger.Logger
	APIToken  string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if deps.Jobs != nil {
			body["jobs"] = deps.Jobs.Stats()
		}
		c.JSON(http.StatusOK, body)
	})

	api := router.Group("/api")
	if deps.APIToken != "" {
		api.Use(requireToken(deps.APIToken))
	}
	if deps.Hooks != nil {
		NewHookController(deps.Hooks, log).RegisterRoutes(api)
	}
	if deps.Documents != nil {
		NewDocumentController(deps.Documents, log).RegisterRoutes(api)
	}
	if deps.Admin != nil {
		NewAdminController(deps.Admin, log).RegisterRoutes(api)
	}
	return router
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Server serves a router until its context is cancelled.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// New creates a Server listening on addr.
func New(addr string, handler http.Handler, log logger.Logger) *Server {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", s.httpServer.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
