// Package cmd (root.go) defines the root command for the spsync CLI.
// It sets up global flags and registers subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/config"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "spsync",
	Short: "Mirror document attachments into SharePoint",
	Long: `spsync copies the files attached to host documents into a SharePoint
document library through Microsoft Graph, filing each document under
{root}/{module}/{doctype}/{docname}.

Current capabilities include:
  - Settings management and connection testing
  - Discovering sites, drives and folders
  - Resolving and creating document folders
  - Uploading files and whole document bundles
  - Serving the file hook and admin calls over HTTP`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Settings file (default $"+config.EnvConfigPath+" or the user config directory)")
}

// withApp builds the App for cmd, runs fn and releases the App.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := app.NewApp(cmd)
	if err != nil {
		return fmt.Errorf("initializing app for '%s': %w", cmd.CommandPath(), err)
	}
	defer a.Close()
	return fn(a)
}
