// Package bundle assembles everything that belongs to one host document, its
// rendered PDF plus its attachments, and hands it to the uploader.
package bundle

import (
	"context"
	"fmt"
	"os"

	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/filestore"
	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/internal/sharepoint"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// AttachmentSource lists the files attached to a document.
type AttachmentSource interface {
	Attachments(ctx context.Context, doctype, docname string) ([]filestore.FileRecord, error)
}

// BundleUploader uploads a prepared bundle.
type BundleUploader interface {
	UploadBundle(ctx context.Context, doctype, docname string, tasks []sharepoint.UploadTask) (sharepoint.UploadResult, error)
}

// Builder turns a document into upload tasks.
type Builder struct {
	renderer Renderer
	files    AttachmentSource
	uploader BundleUploader
	sitePath string
	enabled  bool
	tempDir  string
	logger   logger.Logger
}

// NewBuilder creates a Builder. renderer may be nil to skip the PDF.
func NewBuilder(settings *config.Settings, renderer Renderer, files AttachmentSource, uploader BundleUploader, log logger.Logger) *Builder {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Builder{
		renderer: renderer,
		files:    files,
		uploader: uploader,
		sitePath: settings.Host.SitePath,
		enabled:  settings.Sync.EnableFileSync,
		logger:   log,
	}
}

// SetTempDir changes where rendered PDFs are written. The default is os.TempDir.
func (b *Builder) SetTempDir(dir string) {
	b.tempDir = dir
}

// Build returns the document PDF, as a temporary task named {docname}.pdf,
// followed by every attachment that exists on disk. A rendering failure is
// logged and the bundle carries attachments only.
func (b *Builder) Build(ctx context.Context, doctype, docname string) ([]sharepoint.UploadTask, error) {
	log := b.logger.With("doctype", doctype, "docname", docname)
	var tasks []sharepoint.UploadTask

	if b.renderer != nil {
		if task, err := b.renderPDF(ctx, doctype, docname); err != nil {
			log.Warn("could not render document pdf, continuing with attachments", "error", err)
		} else {
			tasks = append(tasks, task)
		}
	}

	records, err := b.files.Attachments(ctx, doctype, docname)
	if err != nil {
		removeTasks(tasks)
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	for _, rec := range records {
		path := rec.LocalPath(b.sitePath)
		if path == "" {
			log.Debug("attachment is not a local file, skipping", "file", rec.ID, "url", rec.FileURL)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			log.Warn("attachment missing on disk, skipping", "file", rec.ID, "path", path)
			continue
		}
		tasks = append(tasks, sharepoint.UploadTask{
			LocalPath:  path,
			RemoteName: rec.FileName,
			FileID:     rec.ID,
		})
	}
	return tasks, nil
}

func (b *Builder) renderPDF(ctx context.Context, doctype, docname string) (sharepoint.UploadTask, error) {
	data, err := b.renderer.Render(ctx, doctype, docname)
	if err != nil {
		return sharepoint.UploadTask{}, err
	}

	f, err := os.CreateTemp(b.tempDir, "spsync-*.pdf")
	if err != nil {
		return sharepoint.UploadTask{}, fmt.Errorf("creating temp pdf: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return sharepoint.UploadTask{}, fmt.Errorf("writing temp pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return sharepoint.UploadTask{}, fmt.Errorf("closing temp pdf: %w", err)
	}

	return sharepoint.UploadTask{
		LocalPath:  f.Name(),
		RemoteName: docname + ".pdf",
		Temporary:  true,
	}, nil
}

// UploadDocument builds the bundle for a document and uploads it.
func (b *Builder) UploadDocument(ctx context.Context, doctype, docname string) (sharepoint.UploadResult, error) {
	if !b.enabled {
		err := &graph.ConfigError{Field: "enable_file_sync", Message: "SharePoint file sync is not enabled in SharePoint Settings"}
		return sharepoint.FailedResult(err.Error()), err
	}

	tasks, err := b.Build(ctx, doctype, docname)
	if err != nil {
		return sharepoint.FailedResult(err.Error()), err
	}
	if len(tasks) == 0 {
		b.logger.Info("nothing to upload", "doctype", doctype, "docname", docname)
		return sharepoint.FailedResult("No files to upload"), nil
	}
	return b.uploader.UploadBundle(ctx, doctype, docname, tasks)
}

func removeTasks(tasks []sharepoint.UploadTask) {
	for _, t := range tasks {
		if t.Temporary {
			os.Remove(t.LocalPath)
		}
	}
}
