package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonimelisma/spsync/internal/admin"
	"github.com/tonimelisma/spsync/internal/config"
)

func TestTestConnectionLogic(t *testing.T) {
	mockSDK := &MockSDK{
		TestConnectionFunc: func(ctx context.Context) (admin.SiteSummary, error) {
			return admin.SiteSummary{DisplayName: "Contoso", WebURL: "https://contoso.sharepoint.com"}, nil
		},
	}
	output := captureOutput(t, func() {
		require.NoError(t, testConnectionLogic(context.Background(), newTestApp(t, mockSDK)))
	})
	assert.Contains(t, output, "Connection successful!")
	assert.Contains(t, output, "https://contoso.sharepoint.com")

	mockSDK.TestConnectionFunc = func(ctx context.Context) (admin.SiteSummary, error) {
		return admin.SiteSummary{}, &admin.Error{Message: "Failed to authenticate. Please check your credentials."}
	}
	err := testConnectionLogic(context.Background(), newTestApp(t, mockSDK))
	assert.EqualError(t, err, "Failed to authenticate. Please check your credentials.")
}

func TestSitesLogic(t *testing.T) {
	tests := []struct {
		name        string
		sites       []admin.SiteSummary
		mockError   error
		expectError bool
		expected    string
	}{
		{
			name:     "sites listed",
			sites:    []admin.SiteSummary{{ID: "s1", DisplayName: "Finance", WebURL: "https://contoso.sharepoint.com/sites/finance"}},
			expected: "Finance",
		},
		{
			name:     "no sites",
			expected: "No SharePoint sites found.",
		},
		{
			name:        "listing fails",
			mockError:   errors.New("graph unavailable"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSDK := &MockSDK{
				ListSitesFunc: func(ctx context.Context) ([]admin.SiteSummary, error) {
					return tt.sites, tt.mockError
				},
			}
			var err error
			output := captureOutput(t, func() {
				err = sitesLogic(context.Background(), newTestApp(t, mockSDK))
			})
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, output, tt.expected)
		})
	}
}

func TestDrivesAndFoldersLogic(t *testing.T) {
	var gotSite, gotDrive, gotPath string
	mockSDK := &MockSDK{
		SiteDrivesFunc: func(ctx context.Context, siteID string) ([]admin.DriveSummary, error) {
			gotSite = siteID
			return []admin.DriveSummary{{ID: "b!1", Name: "Documents", DriveType: "documentLibrary"}}, nil
		},
		DriveFoldersFunc: func(ctx context.Context, driveID, path string) ([]admin.FolderSummary, error) {
			gotDrive, gotPath = driveID, path
			return []admin.FolderSummary{{Name: "Invoices", ID: "f1", Path: "/ERP/Invoices"}}, nil
		},
	}
	a := newTestApp(t, mockSDK)

	output := captureOutput(t, func() {
		require.NoError(t, drivesLogic(context.Background(), a, "site-1"))
		require.NoError(t, foldersLogic(context.Background(), a, "b!1", "/ERP"))
	})
	assert.Equal(t, "site-1", gotSite)
	assert.Equal(t, "b!1", gotDrive)
	assert.Equal(t, "/ERP", gotPath)
	assert.Contains(t, output, "Documents")
	assert.Contains(t, output, "/ERP/Invoices")
}

func TestSiteDetailsLogicSave(t *testing.T) {
	mockSDK := &MockSDK{
		FetchSiteDetailsFunc: func(ctx context.Context, siteURL string) (admin.SiteDetails, error) {
			assert.Equal(t, "https://contoso.sharepoint.com/sites/Finance", siteURL)
			return admin.SiteDetails{SiteID: "site-1", SiteName: "Finance", DriveID: "drive-1", DriveName: "Documents"}, nil
		},
	}
	a := newTestApp(t, mockSDK)

	output := captureOutput(t, func() {
		require.NoError(t, siteDetailsLogic(context.Background(), a, "https://contoso.sharepoint.com/sites/Finance", true))
	})
	assert.Contains(t, output, "Drive ID:  drive-1")
	assert.Contains(t, output, "saved")

	reloaded, err := config.Load(a.Settings.Path())
	require.NoError(t, err)
	assert.Equal(t, "site-1", reloaded.SharePoint.SiteID)
	assert.Equal(t, "drive-1", reloaded.SharePoint.DriveID)
	assert.Equal(t, "https://contoso.sharepoint.com/sites/Finance", reloaded.SharePoint.SiteURL)
}

func TestSiteDetailsLogicWithoutSave(t *testing.T) {
	mockSDK := &MockSDK{
		FetchSiteDetailsFunc: func(ctx context.Context, siteURL string) (admin.SiteDetails, error) {
			return admin.SiteDetails{SiteID: "site-1", DriveID: "drive-1"}, nil
		},
	}
	a := newTestApp(t, mockSDK)

	captureOutput(t, func() {
		require.NoError(t, siteDetailsLogic(context.Background(), a, "https://contoso.sharepoint.com/sites/Finance", false))
	})
	assert.Empty(t, a.Settings.SharePoint.DriveID)
	_, err := config.Load(a.Settings.Path())
	assert.Error(t, err)
}
