package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/tonimelisma/spsync/internal/admin"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/internal/sharepoint"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// MockSDK is a mock implementation of the SDK interface for testing.
type MockSDK struct {
	TestConnectionFunc   func(ctx context.Context) (admin.SiteSummary, error)
	ListSitesFunc        func(ctx context.Context) ([]admin.SiteSummary, error)
	SiteDrivesFunc       func(ctx context.Context, siteID string) ([]admin.DriveSummary, error)
	DriveFoldersFunc     func(ctx context.Context, driveID, path string) ([]admin.FolderSummary, error)
	FetchSiteDetailsFunc func(ctx context.Context, siteURL string) (admin.SiteDetails, error)
	ResolveFolderFunc    func(ctx context.Context, doctype, docname string) (graph.DriveItem, error)
	UploadFilesFunc      func(ctx context.Context, doctype, docname string, paths []string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error)
	UploadDocumentFunc   func(ctx context.Context, doctype, docname string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error)
	RunUploadFunc        func(ctx context.Context, doctype, docname, localPath, fileID string) error
	SetModuleFunc        func(ctx context.Context, doctype, module string) error
	ModulesFunc          func(ctx context.Context) (map[string]string, error)
}

func (m *MockSDK) TestConnection(ctx context.Context) (admin.SiteSummary, error) {
	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx)
	}
	return admin.SiteSummary{}, nil
}

func (m *MockSDK) ListSites(ctx context.Context) ([]admin.SiteSummary, error) {
	if m.ListSitesFunc != nil {
		return m.ListSitesFunc(ctx)
	}
	return nil, nil
}

func (m *MockSDK) SiteDrives(ctx context.Context, siteID string) ([]admin.DriveSummary, error) {
	if m.SiteDrivesFunc != nil {
		return m.SiteDrivesFunc(ctx, siteID)
	}
	return nil, nil
}

func (m *MockSDK) DriveFolders(ctx context.Context, driveID, path string) ([]admin.FolderSummary, error) {
	if m.DriveFoldersFunc != nil {
		return m.DriveFoldersFunc(ctx, driveID, path)
	}
	return nil, nil
}

func (m *MockSDK) FetchSiteDetails(ctx context.Context, siteURL string) (admin.SiteDetails, error) {
	if m.FetchSiteDetailsFunc != nil {
		return m.FetchSiteDetailsFunc(ctx, siteURL)
	}
	return admin.SiteDetails{}, nil
}

func (m *MockSDK) ResolveFolder(ctx context.Context, doctype, docname string) (graph.DriveItem, error) {
	if m.ResolveFolderFunc != nil {
		return m.ResolveFolderFunc(ctx, doctype, docname)
	}
	return graph.DriveItem{}, nil
}

func (m *MockSDK) UploadFiles(ctx context.Context, doctype, docname string, paths []string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error) {
	if m.UploadFilesFunc != nil {
		return m.UploadFilesFunc(ctx, doctype, docname, paths, progress)
	}
	return sharepoint.UploadResult{}, nil
}

func (m *MockSDK) UploadDocument(ctx context.Context, doctype, docname string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error) {
	if m.UploadDocumentFunc != nil {
		return m.UploadDocumentFunc(ctx, doctype, docname, progress)
	}
	return sharepoint.UploadResult{}, nil
}

func (m *MockSDK) RunUpload(ctx context.Context, doctype, docname, localPath, fileID string) error {
	if m.RunUploadFunc != nil {
		return m.RunUploadFunc(ctx, doctype, docname, localPath, fileID)
	}
	return nil
}

func (m *MockSDK) SetModule(ctx context.Context, doctype, module string) error {
	if m.SetModuleFunc != nil {
		return m.SetModuleFunc(ctx, doctype, module)
	}
	return nil
}

func (m *MockSDK) Modules(ctx context.Context) (map[string]string, error) {
	if m.ModulesFunc != nil {
		return m.ModulesFunc(ctx)
	}
	return nil, nil
}

// newTestApp returns an App around sdk with default settings bound to a
// temporary settings file.
func newTestApp(t *testing.T, sdk app.SDK) *app.App {
	t.Helper()
	settings := config.Default()
	settings.SetPath(filepath.Join(t.TempDir(), "settings.toml"))
	return &app.App{
		Settings: settings,
		Logger:   logger.NoopLogger{},
		SDK:      sdk,
	}
}

// captureOutput captures stdout and stderr, returning them as a string.
// This version doesn't mutate global log state.
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	originalLogOutput := log.Writer()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	oldStderr := os.Stderr
	r2, w2, _ := os.Pipe()
	os.Stderr = w2
	log.SetOutput(w2)

	f()

	w.Close()
	w2.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	log.SetOutput(originalLogOutput)

	stdout, _ := io.ReadAll(r)
	stderr, _ := io.ReadAll(r2)
	return string(stdout) + string(stderr)
}
