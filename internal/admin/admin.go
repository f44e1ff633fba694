// Package admin implements the operator-facing discovery calls used to fill
// in the SharePoint settings: connection test, site and drive listing, folder
// browsing and site lookup by URL.
package admin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// Error is a failure worded for the operator, with the underlying cause.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Authorizer opens an authorized Graph session.
type Authorizer interface {
	Authorize(ctx context.Context) (*graph.Session, error)
}

// SiteSummary describes a site in listings.
type SiteSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
	WebURL      string `json:"webUrl"`
}

// DriveSummary describes a document library in listings.
type DriveSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
	WebURL    string `json:"webUrl"`
}

// FolderSummary describes a folder in a drive listing.
type FolderSummary struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	Path       string `json:"path"`
	ChildCount int    `json:"childCount"`
}

// SiteDetails is the result of looking a site up by URL.
type SiteDetails struct {
	SiteID    string `json:"site_id"`
	SiteName  string `json:"site_name"`
	SiteURL   string `json:"site_url"`
	DriveID   string `json:"drive_id"`
	DriveName string `json:"drive_name"`
}

// Service runs the admin calls.
type Service struct {
	auth   Authorizer
	logger logger.Logger
}

// NewService creates a Service.
func NewService(auth Authorizer, log logger.Logger) *Service {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Service{auth: auth, logger: log}
}

func (s *Service) session(ctx context.Context) (*graph.Session, error) {
	sess, err := s.auth.Authorize(ctx)
	if err != nil {
		s.logger.Error("authorization failed", "error", err)
		return nil, &Error{Message: "Failed to authenticate. Please check your credentials.", Err: err}
	}
	return sess, nil
}

// TestConnection acquires a token and reads the root site.
func (s *Service) TestConnection(ctx context.Context) (SiteSummary, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return SiteSummary{}, err
	}
	site, err := sess.GetSiteRoot(ctx)
	if err != nil {
		s.logger.Error("connection test failed", "error", err)
		return SiteSummary{}, &Error{Message: "Connection failed. Please verify your credentials and permissions.", Err: err}
	}
	return siteSummary(site), nil
}

// ListSites lists every site visible to the application.
func (s *Service) ListSites(ctx context.Context) ([]SiteSummary, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	sites, err := sess.SearchSites(ctx, "*")
	if err != nil {
		s.logger.Error("listing sites failed", "error", err)
		return nil, &Error{Message: "Failed to fetch SharePoint sites", Err: err}
	}

	out := make([]SiteSummary, 0, len(sites))
	for _, site := range sites {
		out = append(out, siteSummary(site))
	}
	return out, nil
}

// SiteDrives lists the document libraries of a site.
func (s *Service) SiteDrives(ctx context.Context, siteID string) ([]DriveSummary, error) {
	if siteID == "" {
		return nil, &Error{Message: "Please select a SharePoint site first"}
	}
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	drives, err := sess.ListSiteDrives(ctx, siteID)
	if err != nil {
		s.logger.Error("listing drives failed", "site_id", siteID, "error", err)
		return nil, &Error{Message: "Failed to fetch drives for the selected site", Err: err}
	}

	out := make([]DriveSummary, 0, len(drives))
	for _, d := range drives {
		out = append(out, DriveSummary{ID: d.ID, Name: d.Name, DriveType: d.DriveType, WebURL: d.WebURL})
	}
	return out, nil
}

// DriveFolders lists the folders directly under path in a drive. An empty
// path lists the drive root.
func (s *Service) DriveFolders(ctx context.Context, driveID, path string) ([]FolderSummary, error) {
	if driveID == "" {
		return nil, &Error{Message: "Please select a drive first"}
	}
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	items, err := sess.ListChildrenByPath(ctx, driveID, path)
	if err != nil {
		s.logger.Error("listing folders failed", "drive_id", driveID, "path", path, "error", err)
		return nil, &Error{Message: "Failed to fetch folders", Err: err}
	}

	base := strings.TrimRight(path, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	out := []FolderSummary{}
	for _, item := range items {
		if !item.IsFolder() {
			continue
		}
		out = append(out, FolderSummary{
			Name:       item.Name,
			ID:         item.ID,
			Path:       base + "/" + item.Name,
			ChildCount: item.Folder.ChildCount,
		})
	}
	return out, nil
}

// FetchSiteDetails resolves a site URL such as
// https://contoso.sharepoint.com/sites/Finance into its site and default
// drive IDs.
func (s *Service) FetchSiteDetails(ctx context.Context, siteURL string) (SiteDetails, error) {
	hostname, sitePath, err := ParseSiteURL(siteURL)
	if err != nil {
		return SiteDetails{}, err
	}
	sess, err := s.session(ctx)
	if err != nil {
		return SiteDetails{}, err
	}

	site, err := sess.GetSiteByPath(ctx, hostname, sitePath)
	if err != nil {
		s.logger.Error("site lookup failed", "host", hostname, "path", sitePath, "error", err)
		return SiteDetails{}, &Error{Message: "Failed to fetch site details. Please check the URL.", Err: err}
	}
	drive, err := sess.GetSiteDrive(ctx, site.ID)
	if err != nil {
		s.logger.Error("drive lookup failed", "site_id", site.ID, "error", err)
		return SiteDetails{}, &Error{Message: "Failed to fetch drive details", Err: err}
	}

	return SiteDetails{
		SiteID:    site.ID,
		SiteName:  siteSummary(site).DisplayName,
		SiteURL:   site.WebURL,
		DriveID:   drive.ID,
		DriveName: drive.Name,
	}, nil
}

// ParseSiteURL splits a SharePoint site URL into hostname and server-relative
// path.
func ParseSiteURL(siteURL string) (hostname, sitePath string, err error) {
	if strings.TrimSpace(siteURL) == "" {
		return "", "", &Error{Message: "Please provide SharePoint Site URL"}
	}
	u, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return "", "", &Error{Message: "SharePoint Site URL must look like https://tenant.sharepoint.com/sites/Name", Err: err}
	}
	return u.Hostname(), strings.TrimRight(u.Path, "/"), nil
}

func siteSummary(site graph.Site) SiteSummary {
	display := site.DisplayName
	if display == "" {
		display = site.Name
	}
	return SiteSummary{ID: site.ID, DisplayName: display, Name: site.Name, WebURL: site.WebURL}
}
