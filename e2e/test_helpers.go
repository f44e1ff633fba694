//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"testing"
	"time"

	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// E2ETestHelper provides utilities for E2E testing against a live tenant.
type E2ETestHelper struct {
	App      *app.App
	Config   *Config
	TestID   string
	TestDir  string
	LocalDir string
}

// NewE2ETestHelper creates a new E2E test helper. Every helper uploads below
// its own root folder so runs never share state.
func NewE2ETestHelper(t *testing.T) *E2ETestHelper {
	t.Helper()

	cfg := LoadConfig()
	if missing := cfg.Missing(); len(missing) > 0 {
		t.Skipf(`
E2E Testing Setup Required:

Set these environment variables for an app registration with
Sites.ReadWrite.All application permission:

  %v

Then run E2E tests:
   go test -tags=e2e -v ./e2e/...
`, missing)
	}

	testID := generateTestID()
	helper := &E2ETestHelper{
		Config:   cfg,
		TestID:   testID,
		TestDir:  path.Join(cfg.TestDir, testID),
		LocalDir: t.TempDir(),
	}

	settings := config.Default()
	settings.SetPath(filepath.Join(helper.LocalDir, "settings.toml"))
	settings.Graph.TenantID = cfg.TenantID
	settings.Graph.ClientID = cfg.ClientID
	settings.Graph.ClientSecret = cfg.ClientSecret
	settings.SharePoint.DriveID = cfg.DriveID
	settings.SharePoint.SiteURL = cfg.SiteURL
	settings.SharePoint.RootFolderPath = helper.TestDir
	settings.Sync.EnableFileSync = true

	var log logger.Logger = logger.NoopLogger{}
	if testing.Verbose() {
		log = logger.New("debug", "text", true)
	}
	a, err := app.New(settings, log)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	helper.App = a

	t.Cleanup(func() {
		helper.Cleanup(t)
	})
	return helper
}

// Context returns a context bounded by the configured timeout.
func (h *E2ETestHelper) Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), h.Config.Timeout)
	t.Cleanup(cancel)
	return ctx
}

// Session authorizes a fresh Graph session.
func (h *E2ETestHelper) Session(t *testing.T) *graph.Session {
	t.Helper()
	sess, err := h.App.Services.Graph.Authorize(h.Context(t))
	if err != nil {
		t.Fatalf("Failed to authorize: %v", err)
	}
	return sess
}

// CreateTestFile writes a local file that is removed with the test.
func (h *E2ETestHelper) CreateTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	p := filepath.Join(h.LocalDir, name)
	if err := os.WriteFile(p, content, 0600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return p
}

// GetTestPath returns the drive path of a name below the test folder.
func (h *E2ETestHelper) GetTestPath(elem ...string) string {
	return path.Join(append([]string{h.TestDir}, elem...)...)
}

// AssertFileExists verifies that an item exists in the drive.
func (h *E2ETestHelper) AssertFileExists(t *testing.T, remotePath string) graph.DriveItem {
	t.Helper()

	item, err := h.Session(t).GetItemByPath(h.Context(t), h.Config.DriveID, remotePath)
	if err != nil {
		t.Fatalf("Expected %s to exist: %v", remotePath, err)
	}
	return item
}

// Cleanup removes the remote test folder.
func (h *E2ETestHelper) Cleanup(t *testing.T) {
	t.Helper()

	defer h.App.Close()
	if !h.Config.Cleanup {
		t.Logf("Leaving remote test directory %s in place", h.TestDir)
		return
	}

	ctx := context.Background()
	sess, err := h.App.Services.Graph.Authorize(ctx)
	if err != nil {
		t.Logf("Warning: cleanup could not authorize: %v", err)
		return
	}
	item, err := sess.GetItemByPath(ctx, h.Config.DriveID, h.TestDir)
	if err != nil {
		t.Logf("Warning: test directory %s not found for cleanup: %v", h.TestDir, err)
		return
	}
	if err := sess.DeleteItem(ctx, h.Config.DriveID, item.ID); err != nil {
		t.Logf("Warning: failed to delete %s: %v", h.TestDir, err)
	}
}

// generateTestID creates a unique test identifier
func generateTestID() string {
	return fmt.Sprintf("test-%d", time.Now().UnixNano())
}
