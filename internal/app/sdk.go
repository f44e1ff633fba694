package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tonimelisma/spsync/internal/admin"
	"github.com/tonimelisma/spsync/internal/sharepoint"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// SDK defines the operations the CLI runs against SharePoint and the local
// store. This allows for mocking in tests.
type SDK interface {
	TestConnection(ctx context.Context) (admin.SiteSummary, error)
	ListSites(ctx context.Context) ([]admin.SiteSummary, error)
	SiteDrives(ctx context.Context, siteID string) ([]admin.DriveSummary, error)
	DriveFolders(ctx context.Context, driveID, path string) ([]admin.FolderSummary, error)
	FetchSiteDetails(ctx context.Context, siteURL string) (admin.SiteDetails, error)
	ResolveFolder(ctx context.Context, doctype, docname string) (graph.DriveItem, error)
	UploadFiles(ctx context.Context, doctype, docname string, paths []string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error)
	UploadDocument(ctx context.Context, doctype, docname string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error)
	RunUpload(ctx context.Context, doctype, docname, localPath, fileID string) error
	SetModule(ctx context.Context, doctype, module string) error
	Modules(ctx context.Context) (map[string]string, error)
}

// LiveSDK is the SDK implementation backed by the real services.
type LiveSDK struct {
	services *Services
}

// NewLiveSDK creates a LiveSDK over services.
func NewLiveSDK(services *Services) *LiveSDK {
	return &LiveSDK{services: services}
}

// TestConnection calls admin.Service.TestConnection.
func (s *LiveSDK) TestConnection(ctx context.Context) (admin.SiteSummary, error) {
	return s.services.Admin.TestConnection(ctx)
}

// ListSites calls admin.Service.ListSites.
func (s *LiveSDK) ListSites(ctx context.Context) ([]admin.SiteSummary, error) {
	return s.services.Admin.ListSites(ctx)
}

// SiteDrives calls admin.Service.SiteDrives.
func (s *LiveSDK) SiteDrives(ctx context.Context, siteID string) ([]admin.DriveSummary, error) {
	return s.services.Admin.SiteDrives(ctx, siteID)
}

// DriveFolders calls admin.Service.DriveFolders.
func (s *LiveSDK) DriveFolders(ctx context.Context, driveID, path string) ([]admin.FolderSummary, error) {
	return s.services.Admin.DriveFolders(ctx, driveID, path)
}

// FetchSiteDetails calls admin.Service.FetchSiteDetails.
func (s *LiveSDK) FetchSiteDetails(ctx context.Context, siteURL string) (admin.SiteDetails, error) {
	return s.services.Admin.FetchSiteDetails(ctx, siteURL)
}

// ResolveFolder builds the folder structure for a document and returns the
// resulting folder item.
func (s *LiveSDK) ResolveFolder(ctx context.Context, doctype, docname string) (graph.DriveItem, error) {
	sess, err := s.services.Graph.Authorize(ctx)
	if err != nil {
		return graph.DriveItem{}, err
	}
	folderID, err := s.services.Resolver.BuildFolderStructure(ctx, sess, doctype, docname)
	if err != nil {
		return graph.DriveItem{}, err
	}
	item, err := sess.GetItem(ctx, s.services.Resolver.DriveID(), folderID)
	if err != nil {
		return graph.DriveItem{}, fmt.Errorf("reading resolved folder: %w", err)
	}
	return item, nil
}

// UploadFiles uploads local files, under their base names, into a
// document's folder.
func (s *LiveSDK) UploadFiles(ctx context.Context, doctype, docname string, paths []string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error) {
	tasks := make([]sharepoint.UploadTask, 0, len(paths))
	for _, p := range paths {
		tasks = append(tasks, sharepoint.UploadTask{LocalPath: p, RemoteName: filepath.Base(p)})
	}
	s.services.Uploader.OnProgress(progress)
	defer s.services.Uploader.OnProgress(nil)
	return s.services.Uploader.UploadBundle(ctx, doctype, docname, tasks)
}

// UploadDocument uploads a document's PDF and attachments.
func (s *LiveSDK) UploadDocument(ctx context.Context, doctype, docname string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error) {
	s.services.Uploader.OnProgress(progress)
	defer s.services.Uploader.OnProgress(nil)
	return s.services.Builder.UploadDocument(ctx, doctype, docname)
}

// RunUpload calls sharepoint.Uploader.RunUpload.
func (s *LiveSDK) RunUpload(ctx context.Context, doctype, docname, localPath, fileID string) error {
	return s.services.Uploader.RunUpload(ctx, doctype, docname, localPath, fileID)
}

// SetModule records the module that owns a doctype.
func (s *LiveSDK) SetModule(ctx context.Context, doctype, module string) error {
	return s.services.Store.SetModule(ctx, doctype, module)
}

// Modules lists every doctype to module mapping.
func (s *LiveSDK) Modules(ctx context.Context) (map[string]string, error) {
	return s.services.Store.Modules(ctx)
}
