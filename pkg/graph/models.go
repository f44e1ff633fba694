package graph

import "time"

// DriveItemList represents a page of DriveItems.
type DriveItemList struct {
	Value    []DriveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink,omitempty"`
}

// DriveItem represents a file or folder stored in a drive.
type DriveItem struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	WebURL               string    `json:"webUrl"`
	Size                 int64     `json:"size"`
	CreatedDateTime      time.Time `json:"createdDateTime"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
	ParentReference      struct {
		DriveID string `json:"driveId"`
		ID      string `json:"id"`
		Path    string `json:"path"`
	} `json:"parentReference"`
	Folder *FolderFacet `json:"folder,omitempty"`
	File   *struct {
		MimeType string `json:"mimeType"`
	} `json:"file,omitempty"`
}

// IsFolder reports whether the item carries a folder facet.
func (i DriveItem) IsFolder() bool {
	return i.Folder != nil
}

// FolderFacet provides information about the folder metadata of an item.
type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

// Site is a SharePoint site as seen through Graph.
type Site struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

// SiteList represents a page of sites.
type SiteList struct {
	Value    []Site `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
}

// Drive is a document library within a site.
type Drive struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DriveType   string `json:"driveType"`
	WebURL      string `json:"webUrl"`
	Description string `json:"description,omitempty"`
}

// DriveList represents a page of drives.
type DriveList struct {
	Value    []Drive `json:"value"`
	NextLink string  `json:"@odata.nextLink,omitempty"`
}

// createFolderRequest is the body of a child-folder create.
type createFolderRequest struct {
	Name             string         `json:"name"`
	Folder           map[string]any `json:"folder"`
	ConflictBehavior string         `json:"@microsoft.graph.conflictBehavior"`
}
