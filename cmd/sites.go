// Package cmd (sites.go) defines the discovery commands used while filling in
// the settings: connection test, sites, drives, folders and site lookup.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/ui"
)

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that the configured credentials reach Microsoft Graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return testConnectionLogic(cmd.Context(), a)
		})
	},
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the SharePoint sites visible to the application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return sitesLogic(cmd.Context(), a)
		})
	},
}

var drivesCmd = &cobra.Command{
	Use:   "drives [site-id]",
	Short: "List the document libraries of a site",
	Long:  "Lists the document libraries of a site. Without an argument the configured sharepoint.site_id is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			siteID := a.Settings.SharePoint.SiteID
			if len(args) == 1 {
				siteID = args[0]
			}
			return drivesLogic(cmd.Context(), a, siteID)
		})
	},
}

var foldersCmd = &cobra.Command{
	Use:   "folders [path]",
	Short: "List the folders of a drive location",
	Long:  "Lists the folders directly under path in a drive. The drive defaults to sharepoint.drive_id; use --drive to pick another.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			driveID, _ := cmd.Flags().GetString("drive")
			if driveID == "" {
				driveID = a.Settings.SharePoint.DriveID
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return foldersLogic(cmd.Context(), a, driveID, path)
		})
	},
}

var siteDetailsCmd = &cobra.Command{
	Use:   "site-details [site-url]",
	Short: "Resolve a site URL into its site and drive IDs",
	Long: `Looks up a SharePoint site by URL, for example
https://contoso.sharepoint.com/sites/Finance, and prints its site ID and default
drive ID. Without an argument the configured sharepoint.site_url is used. With
--save the IDs are written to the settings file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			siteURL := a.Settings.SharePoint.SiteURL
			if len(args) == 1 {
				siteURL = args[0]
			}
			save, _ := cmd.Flags().GetBool("save")
			return siteDetailsLogic(cmd.Context(), a, siteURL, save)
		})
	},
}

func testConnectionLogic(ctx context.Context, a *app.App) error {
	site, err := a.SDK.TestConnection(ctx)
	if err != nil {
		return err
	}
	ui.Success("Connection successful! Credentials are valid.")
	if site.WebURL != "" {
		fmt.Printf("Root site: %s (%s)\n", site.DisplayName, site.WebURL)
	}
	return nil
}

func sitesLogic(ctx context.Context, a *app.App) error {
	sites, err := a.SDK.ListSites(ctx)
	if err != nil {
		return err
	}
	ui.DisplaySites(sites)
	return nil
}

func drivesLogic(ctx context.Context, a *app.App, siteID string) error {
	drives, err := a.SDK.SiteDrives(ctx, siteID)
	if err != nil {
		return err
	}
	ui.DisplayDrives(drives)
	return nil
}

func foldersLogic(ctx context.Context, a *app.App, driveID, path string) error {
	folders, err := a.SDK.DriveFolders(ctx, driveID, path)
	if err != nil {
		return err
	}
	ui.DisplayFolders(folders, path)
	return nil
}

func siteDetailsLogic(ctx context.Context, a *app.App, siteURL string, save bool) error {
	details, err := a.SDK.FetchSiteDetails(ctx, siteURL)
	if err != nil {
		return err
	}
	ui.DisplaySiteDetails(details)
	if !save {
		return nil
	}

	a.Settings.SharePoint.SiteURL = siteURL
	a.Settings.SharePoint.SiteID = details.SiteID
	a.Settings.SharePoint.DriveID = details.DriveID
	if err := a.Settings.Save(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	ui.Success("SharePoint details fetched successfully and saved.")
	return nil
}

func init() {
	foldersCmd.Flags().String("drive", "", "Drive ID (default sharepoint.drive_id)")
	siteDetailsCmd.Flags().Bool("save", false, "Save the site URL, site ID and drive ID to the settings file")
	rootCmd.AddCommand(testConnectionCmd, sitesCmd, drivesCmd, foldersCmd, siteDetailsCmd)
}
