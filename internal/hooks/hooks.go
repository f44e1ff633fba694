// Package hooks reacts to host document events and schedules SharePoint
// uploads for them.
package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/filestore"
	"github.com/tonimelisma/spsync/internal/jobs"
	"github.com/tonimelisma/spsync/internal/logger"
)

// MethodAfterInsert is the only event method that triggers an upload.
const MethodAfterInsert = "after_insert"

// ErrInvalidEvent is returned for events that cannot be processed at all.
var ErrInvalidEvent = errors.New("invalid file event")

// FileEvent is the payload the host sends after a file attachment changes.
type FileEvent struct {
	Name                 string `json:"name"`
	FileName             string `json:"file_name"`
	FileURL              string `json:"file_url"`
	IsPrivate            bool   `json:"is_private"`
	AttachedToDoctype    string `json:"attached_to_doctype"`
	AttachedToName       string `json:"attached_to_name"`
	UploadedToSharePoint bool   `json:"uploaded_to_sharepoint"`
	Method               string `json:"method"`
}

// Record converts the event into the ledger representation.
func (e FileEvent) Record() filestore.FileRecord {
	return filestore.FileRecord{
		ID:                   e.Name,
		FileName:             e.FileName,
		FileURL:              e.FileURL,
		IsPrivate:            e.IsPrivate,
		AttachedToDoctype:    e.AttachedToDoctype,
		AttachedToName:       e.AttachedToName,
		UploadedToSharePoint: e.UploadedToSharePoint,
	}
}

// FileRecorder stores file records.
type FileRecorder interface {
	PutFile(ctx context.Context, rec filestore.FileRecord) error
}

// Enqueuer schedules background work.
type Enqueuer interface {
	Enqueue(name string, fn jobs.Func) (string, error)
}

// SingleUploader uploads one local file into a document folder.
type SingleUploader interface {
	RunUpload(ctx context.Context, doctype, docname, localPath, fileID string) error
}

// Handler turns file events into upload jobs.
type Handler struct {
	settings *config.Settings
	files    FileRecorder
	queue    Enqueuer
	uploader SingleUploader
	logger   logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(settings *config.Settings, files FileRecorder, queue Enqueuer, uploader SingleUploader, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Handler{settings: settings, files: files, queue: queue, uploader: uploader, logger: log}
}

// FileAfterInsert records a new attachment and schedules its upload. The job
// ID is empty when the event does not qualify.
func (h *Handler) FileAfterInsert(ctx context.Context, evt FileEvent) (string, error) {
	log := h.logger.With("file", evt.Name, "doctype", evt.AttachedToDoctype, "docname", evt.AttachedToName)

	if reason := h.skipReason(evt); reason != "" {
		log.Debug("ignoring file event", "reason", reason, "method", evt.Method)
		return "", nil
	}
	if evt.Name == "" {
		return "", fmt.Errorf("%w: file name is required", ErrInvalidEvent)
	}

	rec := evt.Record()
	if err := h.files.PutFile(ctx, rec); err != nil {
		return "", fmt.Errorf("recording file %s: %w", evt.Name, err)
	}

	localPath := rec.LocalPath(h.settings.Host.SitePath)
	if localPath == "" {
		log.Warn("file is not stored locally, nothing to upload", "url", evt.FileURL)
		return "", nil
	}

	doctype, docname, fileID := evt.AttachedToDoctype, evt.AttachedToName, evt.Name
	jobID, err := h.queue.Enqueue("upload "+fileID, func(ctx context.Context) error {
		return h.uploader.RunUpload(ctx, doctype, docname, localPath, fileID)
	})
	if err != nil {
		return "", fmt.Errorf("scheduling upload of %s: %w", evt.Name, err)
	}

	log.Info("upload scheduled", "job_id", jobID, "path", localPath)
	return jobID, nil
}

func (h *Handler) skipReason(evt FileEvent) string {
	switch {
	case evt.Method != MethodAfterInsert:
		return "not an insert"
	case evt.AttachedToDoctype == "" || evt.AttachedToName == "":
		return "not attached to a document"
	case evt.UploadedToSharePoint:
		return "already uploaded"
	case !h.settings.Sync.EnableFileSync:
		return "file sync disabled"
	}
	return ""
}
