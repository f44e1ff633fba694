package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonimelisma/spsync/internal/sharepoint"
	"github.com/tonimelisma/spsync/pkg/graph"
)

func TestResolveLogic(t *testing.T) {
	mockSDK := &MockSDK{
		ResolveFolderFunc: func(ctx context.Context, doctype, docname string) (graph.DriveItem, error) {
			assert.Equal(t, "Expense Claim", doctype)
			assert.Equal(t, "HR-EXP-1", docname)
			return graph.DriveItem{ID: "f9", Name: "HR-EXP-1", WebURL: "https://contoso/HR-EXP-1"}, nil
		},
	}
	output := captureOutput(t, func() {
		require.NoError(t, resolveLogic(context.Background(), newTestApp(t, mockSDK), "Expense Claim", "HR-EXP-1"))
	})
	assert.Contains(t, output, "f9")
	assert.Contains(t, output, "https://contoso/HR-EXP-1")

	mockSDK.ResolveFolderFunc = func(ctx context.Context, doctype, docname string) (graph.DriveItem, error) {
		return graph.DriveItem{}, &graph.ConfigError{Field: "drive_id", Message: "Drive ID is not configured in SharePoint settings"}
	}
	err := resolveLogic(context.Background(), newTestApp(t, mockSDK), "Expense Claim", "HR-EXP-1")
	assert.True(t, errors.Is(err, graph.ErrConfiguration))
}

func TestUploadLogic(t *testing.T) {
	dir := t.TempDir()
	a1 := filepath.Join(dir, "a.txt")
	b1 := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a1, []byte("hello"), 0600))
	require.NoError(t, os.WriteFile(b1, []byte("world"), 0600))

	var gotPaths []string
	mockSDK := &MockSDK{
		UploadFilesFunc: func(ctx context.Context, doctype, docname string, paths []string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error) {
			gotPaths = paths
			for i, p := range paths {
				progress(i+1, len(paths), filepath.Base(p), nil)
			}
			return sharepoint.UploadResult{Success: true, UploadedCount: 2, FailedFiles: []string{}, Message: "Uploaded 2 file(s) to SharePoint"}, nil
		},
	}

	output := captureOutput(t, func() {
		require.NoError(t, uploadLogic(context.Background(), newTestApp(t, mockSDK), "Task", "TASK-1", []string{a1, b1}))
	})
	assert.Equal(t, []string{a1, b1}, gotPaths)
	assert.Contains(t, output, "Uploading 2 file(s) to Task TASK-1")
	assert.Contains(t, output, "5 B")
	assert.Contains(t, output, "Uploaded 2 file(s) to SharePoint")
}

func TestUploadLogicNothingUploaded(t *testing.T) {
	mockSDK := &MockSDK{
		UploadFilesFunc: func(ctx context.Context, doctype, docname string, paths []string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error) {
			progress(1, 1, "missing.txt", errors.New("no such file"))
			return sharepoint.UploadResult{FailedCount: 1, FailedFiles: []string{"missing.txt"}, Message: "Failed to upload 1 file(s) to SharePoint"}, nil
		},
	}

	var err error
	output := captureOutput(t, func() {
		err = uploadLogic(context.Background(), newTestApp(t, mockSDK), "Task", "TASK-1", []string{"missing.txt"})
	})
	assert.True(t, errors.Is(err, errUploadFailed))
	assert.Contains(t, output, "missing.txt")
}

func TestUploadDocumentLogic(t *testing.T) {
	tests := []struct {
		name        string
		result      sharepoint.UploadResult
		mockError   error
		expectError error
	}{
		{
			name:   "partial success",
			result: sharepoint.UploadResult{Success: true, UploadedCount: 2, FailedCount: 1, FailedFiles: []string{"c.pdf"}, Message: "Uploaded 2 of 3 file(s) to SharePoint, 1 failed"},
		},
		{
			name:        "nothing to upload",
			result:      sharepoint.FailedResult("No files to upload"),
			expectError: errUploadFailed,
		},
		{
			name:        "sync disabled",
			mockError:   &graph.ConfigError{Field: "enable_file_sync", Message: "SharePoint file sync is not enabled in SharePoint Settings"},
			expectError: graph.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSDK := &MockSDK{
				UploadDocumentFunc: func(ctx context.Context, doctype, docname string, progress sharepoint.ProgressFunc) (sharepoint.UploadResult, error) {
					return tt.result, tt.mockError
				},
			}
			var err error
			output := captureOutput(t, func() {
				err = uploadDocumentLogic(context.Background(), newTestApp(t, mockSDK), "Sales Invoice", "SINV-1")
			})
			if tt.expectError != nil {
				assert.True(t, errors.Is(err, tt.expectError))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, output, tt.result.Message)
			assert.Contains(t, output, "c.pdf")
		})
	}
}

func TestRunUploadLogic(t *testing.T) {
	var got []string
	mockSDK := &MockSDK{
		RunUploadFunc: func(ctx context.Context, doctype, docname, localPath, fileID string) error {
			got = []string{doctype, docname, localPath, fileID}
			return nil
		},
	}
	output := captureOutput(t, func() {
		require.NoError(t, runUploadLogic(context.Background(), newTestApp(t, mockSDK), "Task", "TASK-1", "/srv/a.pdf", "file-1"))
	})
	assert.Equal(t, []string{"Task", "TASK-1", "/srv/a.pdf", "file-1"}, got)
	assert.Contains(t, output, "Uploaded /srv/a.pdf")

	mockSDK.RunUploadFunc = func(ctx context.Context, doctype, docname, localPath, fileID string) error {
		return errors.New("boom")
	}
	assert.Error(t, runUploadLogic(context.Background(), newTestApp(t, mockSDK), "Task", "TASK-1", "/srv/a.pdf", ""))
}
