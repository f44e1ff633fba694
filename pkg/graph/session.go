package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Session is an authorized view of a Client for the duration of one
// operation. It carries the bearer header obtained by Client.Authorize.
type Session struct {
	client *Client
	header http.Header
}

// NewSession wraps an already-built auth header. Most callers should use
// Client.Authorize instead.
func NewSession(c *Client, header http.Header) *Session {
	return &Session{client: c, header: header}
}

// Header returns a copy of the session's request headers.
func (s *Session) Header() http.Header {
	return s.header.Clone()
}

// Request issues a call with the session's headers. path may be relative to
// the Graph root or an absolute URL such as an @odata.nextLink.
func (s *Session) Request(ctx context.Context, method, path string, body any) Result {
	return s.client.Request(ctx, method, s.url(path), s.header, body)
}

func (s *Session) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.client.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (s *Session) getJSON(ctx context.Context, path string, dest any) error {
	return s.Request(ctx, http.MethodGet, path, nil).Decode(dest)
}

// GetSiteRoot retrieves the tenant's root site. It doubles as a connectivity check.
func (s *Session) GetSiteRoot(ctx context.Context) (Site, error) {
	var site Site
	if err := s.getJSON(ctx, "sites/root", &site); err != nil {
		return site, fmt.Errorf("getting root site: %w", err)
	}
	return site, nil
}

// SearchSites lists sites matching query, following every page.
func (s *Session) SearchSites(ctx context.Context, query string) ([]Site, error) {
	if query == "" {
		query = "*"
	}
	next := "sites?search=" + url.QueryEscape(query)

	var sites []Site
	for next != "" {
		var page SiteList
		if err := s.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("searching sites: %w", err)
		}
		sites = append(sites, page.Value...)
		next = page.NextLink
	}
	return sites, nil
}

// GetSiteByPath resolves a site from its hostname and server-relative path,
// for example ("contoso.sharepoint.com", "/sites/Finance").
func (s *Session) GetSiteByPath(ctx context.Context, hostname, sitePath string) (Site, error) {
	var site Site
	path := "sites/" + hostname
	if trimmed := strings.Trim(sitePath, "/"); trimmed != "" {
		path += ":/" + escapePath(trimmed)
	}
	if err := s.getJSON(ctx, path, &site); err != nil {
		return site, fmt.Errorf("getting site %s%s: %w", hostname, sitePath, err)
	}
	return site, nil
}

// GetSiteDrive retrieves the default document library of a site.
func (s *Session) GetSiteDrive(ctx context.Context, siteID string) (Drive, error) {
	var drive Drive
	if err := s.getJSON(ctx, "sites/"+siteID+"/drive", &drive); err != nil {
		return drive, fmt.Errorf("getting drive of site %s: %w", siteID, err)
	}
	return drive, nil
}

// ListSiteDrives lists every document library of a site.
func (s *Session) ListSiteDrives(ctx context.Context, siteID string) ([]Drive, error) {
	next := "sites/" + siteID + "/drives"

	var drives []Drive
	for next != "" {
		var page DriveList
		if err := s.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("listing drives of site %s: %w", siteID, err)
		}
		drives = append(drives, page.Value...)
		next = page.NextLink
	}
	return drives, nil
}

// GetDriveRoot retrieves the root folder item of a drive.
func (s *Session) GetDriveRoot(ctx context.Context, driveID string) (DriveItem, error) {
	var item DriveItem
	if err := s.getJSON(ctx, "drives/"+driveID+"/root", &item); err != nil {
		return item, fmt.Errorf("getting root of drive %s: %w", driveID, err)
	}
	return item, nil
}

// GetItemByPath retrieves an item by its path relative to the drive root.
func (s *Session) GetItemByPath(ctx context.Context, driveID, path string) (DriveItem, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return s.GetDriveRoot(ctx, driveID)
	}

	var item DriveItem
	if err := s.getJSON(ctx, "drives/"+driveID+"/root:/"+escapePath(trimmed), &item); err != nil {
		return item, fmt.Errorf("getting item %q: %w", path, err)
	}
	return item, nil
}

// GetItem retrieves an item by ID.
func (s *Session) GetItem(ctx context.Context, driveID, itemID string) (DriveItem, error) {
	var item DriveItem
	if err := s.getJSON(ctx, "drives/"+driveID+"/items/"+itemID, &item); err != nil {
		return item, fmt.Errorf("getting item %s: %w", itemID, err)
	}
	return item, nil
}

// ListChildren lists the children of a folder item, following every page.
func (s *Session) ListChildren(ctx context.Context, driveID, itemID string) ([]DriveItem, error) {
	items, err := s.collectChildren(ctx, "drives/"+driveID+"/items/"+itemID+"/children")
	if err != nil {
		return nil, fmt.Errorf("listing children of %s: %w", itemID, err)
	}
	return items, nil
}

// ListChildrenByPath lists the children of the folder at path.
func (s *Session) ListChildrenByPath(ctx context.Context, driveID, path string) ([]DriveItem, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return s.ListChildren(ctx, driveID, RootItemID)
	}
	items, err := s.collectChildren(ctx, "drives/"+driveID+"/root:/"+escapePath(trimmed)+":/children")
	if err != nil {
		return nil, fmt.Errorf("listing children of %q: %w", path, err)
	}
	return items, nil
}

func (s *Session) collectChildren(ctx context.Context, next string) ([]DriveItem, error) {
	var items []DriveItem
	for next != "" {
		var page DriveItemList
		if err := s.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Value...)
		next = page.NextLink
	}
	return items, nil
}

// CreateFolder creates a child folder. A name collision yields a renamed
// folder rather than an error.
func (s *Session) CreateFolder(ctx context.Context, driveID, parentID, name string) (DriveItem, error) {
	request := createFolderRequest{
		Name:             name,
		Folder:           map[string]any{},
		ConflictBehavior: ConflictBehaviorRename,
	}

	var item DriveItem
	res := s.Request(ctx, http.MethodPost, "drives/"+driveID+"/items/"+parentID+"/children", request)
	if err := res.Decode(&item); err != nil {
		return item, fmt.Errorf("creating folder %q: %w", name, err)
	}
	return item, nil
}

// PutContent uploads content as the file name inside a folder, replacing any
// existing file of that name.
func (s *Session) PutContent(ctx context.Context, driveID, folderID, name string, content []byte) (DriveItem, error) {
	path := "drives/" + driveID + "/items/" + folderID + ":/" + url.PathEscape(name) + ":/content"

	var item DriveItem
	res := s.Request(ctx, http.MethodPut, path, content)
	if res.OK() && len(res.Response.Body) == 0 {
		return item, nil
	}
	if err := res.Decode(&item); err != nil {
		return item, fmt.Errorf("uploading %q: %w", name, err)
	}
	return item, nil
}

// DeleteItem moves an item, and everything below it, to the recycle bin.
func (s *Session) DeleteItem(ctx context.Context, driveID, itemID string) error {
	if err := s.Request(ctx, http.MethodDelete, "drives/"+driveID+"/items/"+itemID, nil).Err(); err != nil {
		return fmt.Errorf("deleting item %s: %w", itemID, err)
	}
	return nil
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
