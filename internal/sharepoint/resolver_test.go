package sharepoint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/filestore"
	"github.com/tonimelisma/spsync/pkg/graph"
)

type moduleMap map[string]string

func (m moduleMap) Module(_ context.Context, doctype string) (string, error) {
	if module, ok := m[doctype]; ok {
		return module, nil
	}
	return "", filestore.ErrNotFound
}

func authorize(t *testing.T, fd *fakeDrive, s *config.Settings) *graph.Session {
	t.Helper()
	sess, err := fd.client(s).Authorize(context.Background())
	require.NoError(t, err)
	return sess
}

func TestBuildFolderStructureCreatesNestedPath(t *testing.T) {
	fd := newFakeDrive(t)
	s := fd.settings()
	resolver := NewResolver(s, moduleMap{"Expense Claim": "HR"}, nil)
	sess := authorize(t, fd, s)

	folderID, err := resolver.BuildFolderStructure(context.Background(), sess, "Expense Claim", "HR-EXP-2025-00033")
	require.NoError(t, err)
	assert.NotEmpty(t, folderID)

	assert.Equal(t, []string{
		"POST children HR",
		"POST children Expense Claim",
		"POST children HR-EXP-2025-00033",
	}, fd.callsOf("POST children"))
	assert.Contains(t, fd.folderPaths(), "HR/Expense Claim/HR-EXP-2025-00033")
}

func TestBuildFolderStructureIsIdempotent(t *testing.T) {
	fd := newFakeDrive(t)
	s := fd.settings()
	resolver := NewResolver(s, moduleMap{"Expense Claim": "HR"}, nil)
	sess := authorize(t, fd, s)
	ctx := context.Background()

	first, err := resolver.BuildFolderStructure(ctx, sess, "Expense Claim", "HR-EXP-2025-00033")
	require.NoError(t, err)
	fd.resetCalls()

	second, err := resolver.BuildFolderStructure(ctx, sess, "Expense Claim", "HR-EXP-2025-00033")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, fd.callsOf("POST children"))
	assert.Len(t, fd.folderPaths(), 3)
}

func TestBuildFolderStructureFlatStopsAtRoot(t *testing.T) {
	fd := newFakeDrive(t)
	s := fd.settings()
	s.SharePoint.FolderStructure = config.FolderStructureFlat
	resolver := NewResolver(s, moduleMap{"Expense Claim": "HR"}, nil)
	sess := authorize(t, fd, s)

	folderID, err := resolver.BuildFolderStructure(context.Background(), sess, "Expense Claim", "HR-EXP-2025-00033")
	require.NoError(t, err)
	assert.Equal(t, testRootID, folderID)
	assert.Equal(t, []string{"GET root"}, fd.callsOf("GET"))
	assert.Empty(t, fd.callsOf("POST children"))
}

func TestBuildFolderStructureExistingRootPath(t *testing.T) {
	fd := newFakeDrive(t)
	attachments := fd.mkdir("ERPNext", "Attachments")
	s := fd.settings()
	s.SharePoint.RootFolderPath = "/ERPNext/Attachments/"
	s.SharePoint.FolderStructure = config.FolderStructureFlat
	resolver := NewResolver(s, nil, nil)
	sess := authorize(t, fd, s)

	folderID, err := resolver.BuildFolderStructure(context.Background(), sess, "Sales Invoice", "SINV-0001")
	require.NoError(t, err)
	assert.Equal(t, attachments, folderID)
	assert.Equal(t, []string{"GET path ERPNext/Attachments"}, fd.callsOf("GET"))
}

func TestBuildFolderStructureCreatesMissingRootPath(t *testing.T) {
	fd := newFakeDrive(t)
	s := fd.settings()
	s.SharePoint.RootFolderPath = "ERPNext"
	resolver := NewResolver(s, nil, nil)
	sess := authorize(t, fd, s)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Sales Invoice", "SINV-0001")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"POST children ERPNext",
		"POST children Sales Invoice",
		"POST children SINV-0001",
	}, fd.callsOf("POST children"))
	assert.Contains(t, fd.folderPaths(), "ERPNext/Sales Invoice/SINV-0001")
}

func TestBuildFolderStructureRootPathFailureAborts(t *testing.T) {
	fd := newFakeDrive(t)
	fd.rootStatus = 500
	s := fd.settings()
	s.SharePoint.RootFolderPath = "ERPNext"
	resolver := NewResolver(s, nil, nil)
	sess := authorize(t, fd, s)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Sales Invoice", "SINV-0001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrRemoteAPI))
	assert.Empty(t, fd.callsOf("POST children"))
}

func TestBuildFolderStructureDriveRootFallsBackToAlias(t *testing.T) {
	fd := newFakeDrive(t)
	fd.rootStatus = 500
	s := fd.settings()
	resolver := NewResolver(s, nil, nil)
	sess := authorize(t, fd, s)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Task", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Task"}, fd.folderPaths())
}

func TestBuildFolderStructureSkipsUnknownModuleAndEmptyDocname(t *testing.T) {
	fd := newFakeDrive(t)
	s := fd.settings()
	resolver := NewResolver(s, moduleMap{}, nil)
	sess := authorize(t, fd, s)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Task", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"POST children Task"}, fd.callsOf("POST children"))
}

func TestBuildFolderStructureMatchesExactFolderName(t *testing.T) {
	fd := newFakeDrive(t)
	fd.mkdir("hr")
	fd.addFile(testRootID, "HR")
	s := fd.settings()
	resolver := NewResolver(s, moduleMap{"Expense Claim": "HR"}, nil)
	sess := authorize(t, fd, s)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Expense Claim", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"POST children HR", "POST children Expense Claim"}, fd.callsOf("POST children"))
}

func TestBuildFolderStructureListFailure(t *testing.T) {
	fd := newFakeDrive(t)
	fd.listStatus = 403
	s := fd.settings()
	resolver := NewResolver(s, nil, nil)
	sess := authorize(t, fd, s)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Task", "TASK-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrAccessDenied))
	assert.Empty(t, fd.callsOf("POST children"))
}

func TestBuildFolderStructureCreateFailure(t *testing.T) {
	fd := newFakeDrive(t)
	fd.createStatus = 403
	s := fd.settings()
	resolver := NewResolver(s, nil, nil)
	sess := authorize(t, fd, s)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Task", "TASK-1")
	require.Error(t, err)
	assert.Len(t, fd.callsOf("POST children"), 1)
}

func TestBuildFolderStructureRequiresDrive(t *testing.T) {
	fd := newFakeDrive(t)
	s := fd.settings()
	sess := authorize(t, fd, s)
	fd.resetCalls()

	s.SharePoint.DriveID = ""
	resolver := NewResolver(s, nil, nil)

	_, err := resolver.BuildFolderStructure(context.Background(), sess, "Task", "TASK-1")
	assert.True(t, errors.Is(err, graph.ErrConfiguration))
	assert.Empty(t, fd.callsOf(""))
}
