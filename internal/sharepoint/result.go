package sharepoint

import (
	"errors"
	"fmt"
)

var (
	// ErrLocalIO marks a local file that is missing or unreadable.
	ErrLocalIO = errors.New("local file error")
	// ErrEmptyContent marks a local file with no bytes; it is never uploaded.
	ErrEmptyContent = errors.New("file is empty")
)

// UploadTask is one local file to upload.
type UploadTask struct {
	LocalPath  string `json:"local_path"`
	RemoteName string `json:"remote_name"`
	// Temporary files are deleted once the bundle upload finishes.
	Temporary bool   `json:"temporary"`
	FileID    string `json:"file_id,omitempty"`
}

// UploadResult summarizes a bundle upload.
type UploadResult struct {
	Success       bool     `json:"success"`
	UploadedCount int      `json:"uploaded_count"`
	FailedCount   int      `json:"failed_count"`
	FailedFiles   []string `json:"failed_files"`
	FolderURL     string   `json:"folder_url,omitempty"`
	Message       string   `json:"message"`
}

func (r *UploadResult) recordSuccess() {
	r.UploadedCount++
}

func (r *UploadResult) recordFailure(name string) {
	r.FailedCount++
	r.FailedFiles = append(r.FailedFiles, name)
}

// finish derives Success and Message from the counts.
func (r *UploadResult) finish() {
	r.Success = r.UploadedCount > 0
	if r.FailedFiles == nil {
		r.FailedFiles = []string{}
	}
	total := r.UploadedCount + r.FailedCount
	switch {
	case total == 0:
		r.Message = "No files to upload"
	case r.FailedCount == 0:
		r.Message = fmt.Sprintf("Uploaded %d file(s) to SharePoint", r.UploadedCount)
	case r.UploadedCount == 0:
		r.Message = fmt.Sprintf("Failed to upload %d file(s) to SharePoint", r.FailedCount)
	default:
		r.Message = fmt.Sprintf("Uploaded %d of %d file(s) to SharePoint, %d failed", r.UploadedCount, total, r.FailedCount)
	}
}

// FailedResult reports a bundle that could not be attempted at all.
func FailedResult(message string) UploadResult {
	return UploadResult{FailedFiles: []string{}, Message: message}
}
