// Package filestore keeps the local ledger of host file records and the
// doctype to module mapping in SQLite.
package filestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record or mapping does not exist.
var ErrNotFound = errors.New("not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// FileRecord mirrors a host file attachment.
type FileRecord struct {
	ID                   string    `json:"name"`
	FileName             string    `json:"file_name"`
	FileURL              string    `json:"file_url"`
	IsPrivate            bool      `json:"is_private"`
	AttachedToDoctype    string    `json:"attached_to_doctype"`
	AttachedToName       string    `json:"attached_to_name"`
	UploadedToSharePoint bool      `json:"uploaded_to_sharepoint"`
	CreatedAt            time.Time `json:"creation"`
	UpdatedAt            time.Time `json:"modified"`
}

// LocalPath maps the record's file URL onto the host site directory:
// /private/files/x lives in {site}/private/files/x and /files/x in
// {site}/public/files/x. It returns "" for URLs that are not local files
// and for names that resolve outside the files directory.
func (r FileRecord) LocalPath(sitePath string) string {
	if r.FileURL == "" || sitePath == "" {
		return ""
	}
	marker, dir := "/files/", filepath.Join(sitePath, "public", "files")
	if r.IsPrivate {
		marker, dir = "/private/files/", filepath.Join(sitePath, "private", "files")
	}
	_, name, ok := strings.Cut(r.FileURL, marker)
	if !ok || name == "" {
		return ""
	}
	return within(dir, name)
}

// within joins name onto dir and returns "" unless the result stays below dir.
func within(dir, name string) string {
	path := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return path
}

// Store is a SQLite-backed ledger.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id                     TEXT PRIMARY KEY,
	file_name              TEXT NOT NULL,
	file_url               TEXT NOT NULL DEFAULT '',
	is_private             INTEGER NOT NULL DEFAULT 0,
	attached_to_doctype    TEXT NOT NULL DEFAULT '',
	attached_to_name       TEXT NOT NULL DEFAULT '',
	uploaded_to_sharepoint INTEGER NOT NULL DEFAULT 0,
	created_at             INTEGER NOT NULL,
	updated_at             INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS files_attached ON files (attached_to_doctype, attached_to_name);
CREATE TABLE IF NOT EXISTS doctypes (
	name   TEXT PRIMARY KEY,
	module TEXT NOT NULL
);
`

// Open opens or creates the database at path. An empty path or MemoryPath
// opens an in-memory database.
func Open(path string) (*Store, error) {
	dsn := MemoryPath
	if path != "" && path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutFile inserts or replaces a file record.
func (s *Store) PutFile(ctx context.Context, rec FileRecord) error {
	if rec.ID == "" {
		return errors.New("file record has no id")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, file_name, file_url, is_private, attached_to_doctype, attached_to_name,
			uploaded_to_sharepoint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			file_url = excluded.file_url,
			is_private = excluded.is_private,
			attached_to_doctype = excluded.attached_to_doctype,
			attached_to_name = excluded.attached_to_name,
			uploaded_to_sharepoint = MAX(files.uploaded_to_sharepoint, excluded.uploaded_to_sharepoint),
			updated_at = excluded.updated_at`,
		rec.ID, rec.FileName, rec.FileURL, rec.IsPrivate, rec.AttachedToDoctype, rec.AttachedToName,
		rec.UploadedToSharePoint, rec.CreatedAt.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving file record %s: %w", rec.ID, err)
	}
	return nil
}

// GetFile returns one file record.
func (s *Store) GetFile(ctx context.Context, id string) (FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	rec, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return FileRecord{}, fmt.Errorf("file record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return FileRecord{}, fmt.Errorf("reading file record %s: %w", id, err)
	}
	return rec, nil
}

// Attachments lists the files attached to a document in insertion order.
func (s *Store) Attachments(ctx context.Context, doctype, docname string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files
		WHERE attached_to_doctype = ? AND attached_to_name = ?
		ORDER BY created_at, rowid`, doctype, docname)
	if err != nil {
		return nil, fmt.Errorf("listing attachments of %s %s: %w", doctype, docname, err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("reading attachment row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkUploaded sets the uploaded flag. The flag is never cleared.
func (s *Store) MarkUploaded(ctx context.Context, id string) error {
	return s.update(ctx, id, `UPDATE files SET uploaded_to_sharepoint = 1, updated_at = ? WHERE id = ?`, time.Now().UnixMilli(), id)
}

// SetFileURL re-points a file record at url.
func (s *Store) SetFileURL(ctx context.Context, id, url string) error {
	return s.update(ctx, id, `UPDATE files SET file_url = ?, updated_at = ? WHERE id = ?`, url, time.Now().UnixMilli(), id)
}

func (s *Store) update(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating file record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("file record %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetModule records which module owns a doctype.
func (s *Store) SetModule(ctx context.Context, doctype, module string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO doctypes (name, module) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET module = excluded.module`, doctype, module)
	if err != nil {
		return fmt.Errorf("saving module of %s: %w", doctype, err)
	}
	return nil
}

// Module returns the module that owns doctype.
func (s *Store) Module(ctx context.Context, doctype string) (string, error) {
	var module string
	err := s.db.QueryRowContext(ctx, `SELECT module FROM doctypes WHERE name = ?`, doctype).Scan(&module)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("module of %s: %w", doctype, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading module of %s: %w", doctype, err)
	}
	return module, nil
}

// Modules returns every doctype to module mapping.
func (s *Store) Modules(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, module FROM doctypes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, module string
		if err := rows.Scan(&name, &module); err != nil {
			return nil, fmt.Errorf("reading module row: %w", err)
		}
		out[name] = module
	}
	return out, rows.Err()
}

const fileColumns = `id, file_name, file_url, is_private, attached_to_doctype, attached_to_name,
	uploaded_to_sharepoint, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (FileRecord, error) {
	var rec FileRecord
	var created, updated int64
	err := row.Scan(&rec.ID, &rec.FileName, &rec.FileURL, &rec.IsPrivate, &rec.AttachedToDoctype,
		&rec.AttachedToName, &rec.UploadedToSharePoint, &created, &updated)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt = time.UnixMilli(created)
	rec.UpdatedAt = time.UnixMilli(updated)
	return rec, nil
}
