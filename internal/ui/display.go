// Package ui (display.go) provides functions for printing sites, drives,
// folders and upload results to the console in a user-friendly way. It also
// includes the bundle progress bar and standardized success/error messages.
package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/tonimelisma/spsync/internal/admin"
	"github.com/tonimelisma/spsync/internal/sharepoint"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// Success prints a simple success message to standard output.
func Success(msg string) {
	fmt.Println(msg)
}

// PrintError prints an error message to standard error.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// DisplaySites prints a table of sites.
func DisplaySites(sites []admin.SiteSummary) {
	if len(sites) == 0 {
		fmt.Println("No SharePoint sites found.")
		return
	}

	fmt.Printf("%-30s %-60s %s\n", "Display Name", "Site ID", "Web URL")
	fmt.Println(strings.Repeat("-", 120))
	for _, site := range sites {
		fmt.Printf("%-30.30s %-60.60s %s\n", site.DisplayName, site.ID, site.WebURL)
	}
}

// DisplayDrives prints a table of document libraries.
func DisplayDrives(drives []admin.DriveSummary) {
	if len(drives) == 0 {
		fmt.Println("No drives found for this site.")
		return
	}

	fmt.Printf("%-30s %-18s %s\n", "Drive Name", "Drive Type", "Drive ID")
	fmt.Println(strings.Repeat("-", 100))
	for _, drive := range drives {
		fmt.Printf("%-30.30s %-18s %s\n", drive.Name, drive.DriveType, drive.ID)
	}
}

// DisplayFolders prints the folders of a drive location.
func DisplayFolders(folders []admin.FolderSummary, path string) {
	location := path
	if location == "" {
		location = "/"
	}
	if len(folders) == 0 {
		fmt.Printf("No folders found in %s.\n", location)
		return
	}

	fmt.Printf("Folders in %s:\n", location)
	fmt.Printf("%-50s %8s %s\n", "Path", "Children", "ID")
	fmt.Println(strings.Repeat("-", 90))
	for _, f := range folders {
		fmt.Printf("%-50.50s %8d %s\n", f.Path, f.ChildCount, f.ID)
	}
}

// DisplaySiteDetails prints the IDs resolved from a site URL.
func DisplaySiteDetails(details admin.SiteDetails) {
	fmt.Println("SharePoint Site Details:")
	fmt.Printf("  Site:      %s\n", details.SiteName)
	fmt.Printf("  Site URL:  %s\n", details.SiteURL)
	fmt.Printf("  Site ID:   %s\n", details.SiteID)
	fmt.Printf("  Drive:     %s\n", details.DriveName)
	fmt.Printf("  Drive ID:  %s\n", details.DriveID)
}

// DisplayFolder prints metadata for a single drive item.
func DisplayFolder(item graph.DriveItem) {
	fmt.Println("Folder:")
	fmt.Printf("  Name:          %s\n", item.Name)
	fmt.Printf("  ID:            %s\n", item.ID)
	if item.ParentReference.Path != "" {
		fmt.Printf("  Parent:        %s\n", item.ParentReference.Path)
	}
	if !item.LastModifiedDateTime.IsZero() {
		fmt.Printf("  Last Modified: %s\n", item.LastModifiedDateTime.Local().Format(time.RFC1123))
	}
	if item.Folder != nil {
		fmt.Printf("  Child Count:   %d\n", item.Folder.ChildCount)
	}
	if item.WebURL != "" {
		fmt.Printf("  Web URL:       %s\n", item.WebURL)
	}
}

// DisplayUploadResult prints the outcome of a bundle upload.
func DisplayUploadResult(result sharepoint.UploadResult) {
	fmt.Println(result.Message)
	fmt.Printf("  Uploaded: %d\n", result.UploadedCount)
	fmt.Printf("  Failed:   %d\n", result.FailedCount)
	for _, name := range result.FailedFiles {
		fmt.Printf("    - %s\n", name)
	}
	if result.FolderURL != "" {
		fmt.Printf("  Folder:   %s\n", result.FolderURL)
	}
}

// DisplayModules prints the doctype to module mapping.
func DisplayModules(modules map[string]string) {
	if len(modules) == 0 {
		fmt.Println("No doctype modules configured.")
		return
	}

	doctypes := make([]string, 0, len(modules))
	for d := range modules {
		doctypes = append(doctypes, d)
	}
	sort.Strings(doctypes)

	fmt.Printf("%-35s %s\n", "Doctype", "Module")
	fmt.Println(strings.Repeat("-", 60))
	for _, d := range doctypes {
		fmt.Printf("%-35.35s %s\n", d, modules[d])
	}
}

// formatBytes converts a size in bytes to a human-readable string using IEC
// units (KiB, MiB, GiB, etc.).
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// DisplayFileSize prints a local file with its human-readable size.
func DisplayFileSize(path string, size int64) {
	fmt.Printf("  %-60.60s %12s\n", path, formatBytes(size))
}

// NewProgressBar creates a progress bar counting files of a bundle.
// `total` is the number of files, `description` is shown next to the bar.
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	if description == "" {
		description = "Uploading..."
	}
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr), // keep stdout for results
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
