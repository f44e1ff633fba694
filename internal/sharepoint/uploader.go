package sharepoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// Authorizer opens an authorized Graph session for one operation.
type Authorizer interface {
	Authorize(ctx context.Context) (*graph.Session, error)
}

// FileRecords is the part of the local ledger the uploader writes back to.
type FileRecords interface {
	MarkUploaded(ctx context.Context, id string) error
	SetFileURL(ctx context.Context, id, url string) error
}

// ProgressFunc is called after each file of a bundle, with done counting
// files attempted so far.
type ProgressFunc func(done, total int, name string, err error)

// Uploader pushes local files into the folder the Resolver picks.
type Uploader struct {
	auth            Authorizer
	resolver        *Resolver
	records         FileRecords
	replaceFileLink bool
	logger          logger.Logger
	progress        ProgressFunc
}

// NewUploader wires an Uploader. records may be nil when no ledger is kept.
func NewUploader(settings *config.Settings, auth Authorizer, resolver *Resolver, records FileRecords, log logger.Logger) *Uploader {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Uploader{
		auth:            auth,
		resolver:        resolver,
		records:         records,
		replaceFileLink: settings.Sync.ReplaceFileLink,
		logger:          log,
	}
}

// OnProgress registers fn to be called after every file of a bundle.
func (u *Uploader) OnProgress(fn ProgressFunc) {
	u.progress = fn
}

// Resolver returns the resolver the uploader targets.
func (u *Uploader) Resolver() *Resolver {
	return u.resolver
}

// UploadBundle uploads tasks, in order, into the document's folder. Each
// file succeeds or fails on its own. The error is non-nil only for
// configuration and authentication failures; everything else is reported in
// the result. Temporary task files are removed before returning.
func (u *Uploader) UploadBundle(ctx context.Context, doctype, docname string, tasks []UploadTask) (UploadResult, error) {
	defer removeTemporary(tasks, u.logger)

	log := u.logger.With("doctype", doctype, "docname", docname)
	if u.resolver.DriveID() == "" {
		err := &graph.ConfigError{Field: "drive_id", Message: "Drive ID is not configured in SharePoint settings"}
		return FailedResult(err.Error()), err
	}

	sess, err := u.auth.Authorize(ctx)
	if err != nil {
		log.Error("authorization failed, aborting bundle", "error", err)
		return FailedResult(fmt.Sprintf("Authentication failed: %v", err)), err
	}

	result := UploadResult{}
	folderID, err := u.resolver.BuildFolderStructure(ctx, sess, doctype, docname)
	if err != nil {
		log.Error("failed to resolve destination folder", "error", err)
		if errors.Is(err, graph.ErrConfiguration) {
			return FailedResult(err.Error()), err
		}
		for _, task := range tasks {
			result.recordFailure(taskName(task))
		}
		result.finish()
		result.Message = fmt.Sprintf("Failed to create folder structure: %v", err)
		return result, nil
	}

	for i, task := range tasks {
		name := taskName(task)
		var taskErr error
		if task.LocalPath == "" {
			taskErr = fmt.Errorf("%w: task has no file path", ErrLocalIO)
			log.Error("skipping incomplete upload task", "task", name)
		} else {
			_, taskErr = u.UploadSingle(ctx, sess, folderID, task)
		}

		if taskErr != nil {
			result.recordFailure(name)
		} else {
			result.recordSuccess()
		}
		if u.progress != nil {
			u.progress(i+1, len(tasks), name, taskErr)
		}
	}

	if item, err := sess.GetItem(ctx, u.resolver.DriveID(), folderID); err != nil {
		log.Warn("could not look up folder url", "folder", folderID, "error", err)
	} else {
		result.FolderURL = item.WebURL
	}

	result.finish()
	log.Info("bundle upload finished", "uploaded", result.UploadedCount, "failed", result.FailedCount)
	return result, nil
}

// UploadSingle uploads one file into folderID. The file is read whole; empty
// files fail without a request. On success the file record is marked
// uploaded and, with replace_file_link on, re-pointed at SharePoint and the
// local copy removed.
func (u *Uploader) UploadSingle(ctx context.Context, sess *graph.Session, folderID string, task UploadTask) (bool, error) {
	name := taskName(task)
	log := u.logger.With("file", name)

	content, err := os.ReadFile(task.LocalPath)
	if err != nil {
		log.Error("cannot read local file", "path", task.LocalPath, "error", err)
		return false, fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	if len(content) == 0 {
		log.Error("refusing to upload empty file", "path", task.LocalPath)
		return false, fmt.Errorf("%w: %s", ErrEmptyContent, task.LocalPath)
	}

	item, err := sess.PutContent(ctx, u.resolver.DriveID(), folderID, name, content)
	if err != nil {
		log.Error("upload failed", "error", err)
		return false, err
	}
	log.Info("uploaded file", "bytes", len(content), "web_url", item.WebURL)

	if task.FileID == "" || u.records == nil {
		return true, nil
	}
	if err := u.records.MarkUploaded(ctx, task.FileID); err != nil {
		log.Error("could not mark file record uploaded", "file_id", task.FileID, "error", err)
	}

	if u.replaceFileLink && item.WebURL != "" {
		if err := u.records.SetFileURL(ctx, task.FileID, item.WebURL); err != nil {
			log.Error("could not re-point file record, keeping local copy", "file_id", task.FileID, "error", err)
			return true, nil
		}
		if err := os.Remove(task.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove local copy", "path", task.LocalPath, "error", err)
		}
	}
	return true, nil
}

// RunUpload is the single-file path run by background jobs: resolve the
// document folder and upload localPath under its base name.
func (u *Uploader) RunUpload(ctx context.Context, doctype, docname, localPath, fileID string) error {
	sess, err := u.auth.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("authorizing upload of %s: %w", filepath.Base(localPath), err)
	}

	folderID, err := u.resolver.BuildFolderStructure(ctx, sess, doctype, docname)
	if err != nil {
		return fmt.Errorf("resolving folder for %s %s: %w", doctype, docname, err)
	}

	task := UploadTask{LocalPath: localPath, RemoteName: filepath.Base(localPath), FileID: fileID}
	if _, err := u.UploadSingle(ctx, sess, folderID, task); err != nil {
		return fmt.Errorf("uploading %s: %w", task.RemoteName, err)
	}
	return nil
}

func taskName(task UploadTask) string {
	if task.RemoteName != "" {
		return task.RemoteName
	}
	if task.LocalPath != "" {
		return filepath.Base(task.LocalPath)
	}
	return "(unnamed)"
}

// removeTemporary deletes temporary task files. Failures are logged only.
func removeTemporary(tasks []UploadTask, log logger.Logger) {
	for _, task := range tasks {
		if !task.Temporary || task.LocalPath == "" {
			continue
		}
		if err := os.Remove(task.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove temporary file", "path", task.LocalPath, "error", err)
		}
	}
}
