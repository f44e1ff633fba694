// Package cmd (upload.go) defines the commands that resolve document folders
// and push files into them.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/sharepoint"
	"github.com/tonimelisma/spsync/internal/ui"
)

// errUploadFailed is returned when a bundle uploaded nothing.
var errUploadFailed = errors.New("upload failed")

var resolveCmd = &cobra.Command{
	Use:   "resolve <doctype> [docname]",
	Short: "Resolve, creating as needed, the folder of a document",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			docname := ""
			if len(args) == 2 {
				docname = args[1]
			}
			return resolveLogic(cmd.Context(), a, args[0], docname)
		})
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <doctype> <docname> <file>...",
	Short: "Upload local files into a document's folder",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return uploadLogic(cmd.Context(), a, args[0], args[1], args[2:])
		})
	},
}

var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document <doctype> <docname>",
	Short: "Upload a document's PDF and all of its attachments",
	Long: `Renders the document PDF through the host, collects every recorded attachment
that exists on disk and uploads the bundle into the document's folder.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return uploadDocumentLogic(cmd.Context(), a, args[0], args[1])
		})
	},
}

var runUploadCmd = &cobra.Command{
	Use:   "run-upload <doctype> <docname> <path>",
	Short: "Upload a single file the way a background job does",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			fileID, _ := cmd.Flags().GetString("file-id")
			return runUploadLogic(cmd.Context(), a, args[0], args[1], args[2], fileID)
		})
	},
}

func resolveLogic(ctx context.Context, a *app.App, doctype, docname string) error {
	item, err := a.SDK.ResolveFolder(ctx, doctype, docname)
	if err != nil {
		return fmt.Errorf("resolving folder for %s %s: %w", doctype, docname, err)
	}
	ui.DisplayFolder(item)
	return nil
}

func uploadLogic(ctx context.Context, a *app.App, doctype, docname string, paths []string) error {
	fmt.Printf("Uploading %d file(s) to %s %s:\n", len(paths), doctype, docname)
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			ui.DisplayFileSize(p, info.Size())
		}
	}

	progress, finish := bundleProgress("Uploading")
	result, err := a.SDK.UploadFiles(ctx, doctype, docname, paths, progress)
	finish()
	return reportResult(result, err)
}

func uploadDocumentLogic(ctx context.Context, a *app.App, doctype, docname string) error {
	progress, finish := bundleProgress("Uploading " + docname)
	result, err := a.SDK.UploadDocument(ctx, doctype, docname, progress)
	finish()
	return reportResult(result, err)
}

func runUploadLogic(ctx context.Context, a *app.App, doctype, docname, path, fileID string) error {
	if err := a.SDK.RunUpload(ctx, doctype, docname, path, fileID); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Uploaded %s to %s %s", path, doctype, docname))
	return nil
}

func reportResult(result sharepoint.UploadResult, err error) error {
	if err != nil {
		return err
	}
	ui.DisplayUploadResult(result)
	if !result.Success {
		return fmt.Errorf("%w: %s", errUploadFailed, result.Message)
	}
	return nil
}

// bundleProgress returns a progress callback that draws a bar once the
// bundle size is known, and a func that completes the bar.
func bundleProgress(description string) (sharepoint.ProgressFunc, func()) {
	var bar *progressbar.ProgressBar
	progress := func(done, total int, name string, err error) {
		if bar == nil {
			bar = ui.NewProgressBar(total, description)
		}
		bar.Describe(fmt.Sprintf("%s %s", description, name))
		_ = bar.Set(done)
	}
	finish := func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}
	return progress, finish
}

func init() {
	runUploadCmd.Flags().String("file-id", "", "File record to mark as uploaded")
	rootCmd.AddCommand(resolveCmd, uploadCmd, uploadDocumentCmd, runUploadCmd)
}
