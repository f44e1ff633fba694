package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tonimelisma/spsync/internal/hooks"
	"github.com/tonimelisma/spsync/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HookController receives host file events.
type HookController struct {
	hooks  FileHook
	logger logger.Logger
	tracer trace.Tracer
}

// NewHookController creates a HookController.
func NewHookController(h FileHook, log logger.Logger) *HookController {
	return &HookController{hooks: h, logger: log, tracer: otel.Tracer("spsync/hooks")}
}

// RegisterRoutes registers hook routes with the gin router.
func (hc *HookController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/hooks/file", hc.FileEvent)
}

// FileEvent schedules an upload for a newly attached file. It answers 202
// with the job ID, or 200 when the event does not qualify.
func (hc *HookController) FileEvent(c *gin.Context) {
	ctx, span := hc.tracer.Start(c.Request.Context(), "hook_controller.file_event")
	defer span.End()

	var evt hooks.FileEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_REQUEST",
			Details: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}
	span.SetAttributes(
		attribute.String("file", evt.Name),
		attribute.String("method", evt.Method),
		attribute.String("doctype", evt.AttachedToDoctype),
	)

	jobID, err := hc.hooks.FileAfterInsert(ctx, evt)
	if err != nil {
		hc.logger.Error("file event failed", "file", evt.Name, "error", err)
		respondError(c, span, err)
		return
	}
	if jobID == "" {
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}
	span.SetAttributes(attribute.String("job_id", jobID))
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// DocumentController uploads document bundles on demand.
type DocumentController struct {
	documents DocumentUploader
	logger    logger.Logger
	tracer    trace.Tracer
}

// NewDocumentController creates a DocumentController.
func NewDocumentController(d DocumentUploader, log logger.Logger) *DocumentController {
	return &DocumentController{documents: d, logger: log, tracer: otel.Tracer("spsync/documents")}
}

// RegisterRoutes registers document routes with the gin router.
func (dc *DocumentController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/documents/:doctype/:docname/upload", dc.Upload)
}

// Upload builds and uploads the bundle of one document and returns the
// upload result. Per-file failures are part of a 200 response.
func (dc *DocumentController) Upload(c *gin.Context) {
	ctx, span := dc.tracer.Start(c.Request.Context(), "document_controller.upload")
	defer span.End()

	doctype, docname := c.Param("doctype"), c.Param("docname")
	span.SetAttributes(attribute.String("doctype", doctype), attribute.String("docname", docname))

	result, err := dc.documents.UploadDocument(ctx, doctype, docname)
	if err != nil {
		dc.logger.Error("document upload failed", "doctype", doctype, "docname", docname, "error", err)
		respondError(c, span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("uploaded", result.UploadedCount),
		attribute.Int("failed", result.FailedCount),
	)
	c.JSON(http.StatusOK, result)
}

// AdminController serves the settings discovery calls.
type AdminController struct {
	admin  AdminService
	logger logger.Logger
	tracer trace.Tracer
}

// NewAdminController creates an AdminController.
func NewAdminController(a AdminService, log logger.Logger) *AdminController {
	return &AdminController{admin: a, logger: log, tracer: otel.Tracer("spsync/admin")}
}

// RegisterRoutes registers admin routes with the gin router.
func (ac *AdminController) RegisterRoutes(router *gin.RouterGroup) {
	adminRoutes := router.Group("/admin")
	{
		adminRoutes.GET("/test-connection", ac.TestConnection)
		adminRoutes.GET("/sites", ac.ListSites)
		adminRoutes.GET("/sites/:site_id/drives", ac.SiteDrives)
		adminRoutes.GET("/drives/:drive_id/folders", ac.DriveFolders)
		adminRoutes.POST("/site-details", ac.FetchSiteDetails)
	}
}

// TestConnection checks that the credentials reach Graph.
func (ac *AdminController) TestConnection(c *gin.Context) {
	ctx, span := ac.tracer.Start(c.Request.Context(), "admin_controller.test_connection")
	defer span.End()

	site, err := ac.admin.TestConnection(ctx)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Connection successful! Credentials are valid.", "site": site})
}

// ListSites lists visible sites.
func (ac *AdminController) ListSites(c *gin.Context) {
	ctx, span := ac.tracer.Start(c.Request.Context(), "admin_controller.list_sites")
	defer span.End()

	sites, err := ac.admin.ListSites(ctx)
	if err != nil {
		respondError(c, span, err)
		return
	}
	span.SetAttributes(attribute.Int("count", len(sites)))
	c.JSON(http.StatusOK, sites)
}

// SiteDrives lists the drives of a site.
func (ac *AdminController) SiteDrives(c *gin.Context) {
	ctx, span := ac.tracer.Start(c.Request.Context(), "admin_controller.site_drives")
	defer span.End()

	siteID := c.Param("site_id")
	span.SetAttributes(attribute.String("site_id", siteID))
	drives, err := ac.admin.SiteDrives(ctx, siteID)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, drives)
}

// DriveFolders lists the folders under the path query parameter.
func (ac *AdminController) DriveFolders(c *gin.Context) {
	ctx, span := ac.tracer.Start(c.Request.Context(), "admin_controller.drive_folders")
	defer span.End()

	driveID, path := c.Param("drive_id"), c.Query("path")
	span.SetAttributes(attribute.String("drive_id", driveID), attribute.String("path", path))
	folders, err := ac.admin.DriveFolders(ctx, driveID, path)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

type siteDetailsRequest struct {
	SiteURL string `json:"site_url" binding:"required"`
}

// FetchSiteDetails resolves a site URL to its site and drive IDs.
func (ac *AdminController) FetchSiteDetails(c *gin.Context) {
	ctx, span := ac.tracer.Start(c.Request.Context(), "admin_controller.fetch_site_details")
	defer span.End()

	var req siteDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_REQUEST",
			Details: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	details, err := ac.admin.FetchSiteDetails(ctx, req.SiteURL)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, details)
}
