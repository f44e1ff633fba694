// Package sharepoint mirrors host documents into a SharePoint drive: it
// resolves (and lazily creates) the destination folder for a document and
// uploads file content into it.
package sharepoint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// ModuleLookup finds the module that owns a doctype.
type ModuleLookup interface {
	Module(ctx context.Context, doctype string) (string, error)
}

// Resolver walks the configured folder layout for a document, creating any
// folder that does not exist yet.
type Resolver struct {
	driveID  string
	rootPath string
	flat     bool
	modules  ModuleLookup
	logger   logger.Logger
}

// NewResolver creates a Resolver for the drive and layout in settings.
// modules may be nil, in which case the module segment is always skipped.
func NewResolver(settings *config.Settings, modules ModuleLookup, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Resolver{
		driveID:  settings.SharePoint.DriveID,
		rootPath: strings.Trim(settings.SharePoint.RootFolderPath, "/"),
		flat:     settings.Flat(),
		modules:  modules,
		logger:   log,
	}
}

// DriveID is the drive every folder is resolved in.
func (r *Resolver) DriveID() string {
	return r.driveID
}

// BuildFolderStructure returns the ID of the folder a document's files belong
// in. docname may be empty to resolve the doctype folder only.
func (r *Resolver) BuildFolderStructure(ctx context.Context, sess *graph.Session, doctype, docname string) (string, error) {
	if r.driveID == "" {
		return "", &graph.ConfigError{Field: "drive_id", Message: "Drive ID is not configured in SharePoint settings"}
	}

	folderID, err := r.resolveRoot(ctx, sess)
	if err != nil {
		return "", err
	}
	if r.flat {
		return folderID, nil
	}

	for _, segment := range r.segments(ctx, doctype, docname) {
		folderID, err = r.findOrCreate(ctx, sess, folderID, segment)
		if err != nil {
			return "", err
		}
	}
	return folderID, nil
}

// segments lists the folder names below the root for a document.
func (r *Resolver) segments(ctx context.Context, doctype, docname string) []string {
	var out []string
	if r.modules != nil {
		module, err := r.modules.Module(ctx, doctype)
		switch {
		case err != nil:
			r.logger.Debug("no module for doctype, skipping module folder", "doctype", doctype, "error", err)
		case module != "":
			out = append(out, module)
		}
	}
	out = append(out, doctype)
	if docname != "" {
		out = append(out, docname)
	}
	return out
}

func (r *Resolver) resolveRoot(ctx context.Context, sess *graph.Session) (string, error) {
	if r.rootPath == "" {
		root, err := sess.GetDriveRoot(ctx, r.driveID)
		if err != nil || root.ID == "" {
			r.logger.Warn("could not fetch drive root, using root alias", "drive", r.driveID, "error", err)
			return graph.RootItemID, nil
		}
		return root.ID, nil
	}

	item, err := sess.GetItemByPath(ctx, r.driveID, r.rootPath)
	if err == nil {
		return item.ID, nil
	}
	if !errors.Is(err, graph.ErrResourceNotFound) {
		return "", fmt.Errorf("resolving root folder %q: %w", r.rootPath, err)
	}

	r.logger.Info("root folder missing, creating it", "path", r.rootPath)
	parentID := graph.RootItemID
	for _, segment := range strings.Split(r.rootPath, "/") {
		if segment == "" {
			continue
		}
		if parentID, err = r.findOrCreate(ctx, sess, parentID, segment); err != nil {
			return "", err
		}
	}
	return parentID, nil
}

// findOrCreate returns the child folder of parentID named name, creating it
// when no folder has exactly that name.
func (r *Resolver) findOrCreate(ctx context.Context, sess *graph.Session, parentID, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty folder name", graph.ErrInvalidRequest)
	}

	children, err := sess.ListChildren(ctx, r.driveID, parentID)
	if err != nil {
		return "", fmt.Errorf("looking up folder %q: %w", name, err)
	}
	for _, child := range children {
		if child.IsFolder() && child.Name == name {
			return child.ID, nil
		}
	}

	created, err := sess.CreateFolder(ctx, r.driveID, parentID, name)
	if err != nil {
		return "", fmt.Errorf("creating folder %q: %w", name, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("creating folder %q: %w: response has no id", name, graph.ErrDecodingFailed)
	}
	if created.Name != "" && created.Name != name {
		r.logger.Warn("folder created under a different name", "requested", name, "created", created.Name)
	}
	r.logger.Debug("created folder", "name", created.Name, "id", created.ID, "parent", parentID)
	return created.ID, nil
}
