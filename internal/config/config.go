// Package config loads and saves the spsync settings file. Settings are
// stored as TOML and handed to components explicitly; nothing in the sync
// path reads global state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
	"github.com/tonimelisma/spsync/pkg/graph"
)

const (
	appDir   = "spsync"
	fileName = "settings.toml"

	// EnvConfigPath overrides the settings file location.
	EnvConfigPath = "SPSYNC_CONFIG"
	// EnvClientSecret overrides graph.client_secret without writing it to disk.
	EnvClientSecret = "SPSYNC_CLIENT_SECRET"
)

// Folder structure modes.
const (
	FolderStructureFlat   = "Flat"
	FolderStructureNested = "Module/DocType/Document"
)

// File permissions for the settings file and its directory.
const (
	PermSecureDir  = 0700
	PermSecureFile = 0600
)

// GraphSettings holds the Azure AD application and Graph endpoint.
type GraphSettings struct {
	TenantID       string `toml:"tenant_id"`
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	APIURL         string `toml:"api_url"`
	AuthorityHost  string `toml:"authority_host"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SharePointSettings selects the drive and the folder layout inside it.
type SharePointSettings struct {
	SiteURL         string `toml:"site_url"`
	SiteID          string `toml:"site_id"`
	DriveID         string `toml:"drive_id"`
	RootFolderPath  string `toml:"root_folder_path"`
	FolderStructure string `toml:"folder_structure"`
}

// SyncSettings controls what happens when files are attached.
type SyncSettings struct {
	EnableFileSync  bool `toml:"enable_file_sync"`
	ReplaceFileLink bool `toml:"replace_file_link"`
	Workers         int  `toml:"workers"`
}

// HostSettings describes the host site that owns documents and files.
type HostSettings struct {
	URL         string `toml:"url"`
	APIKey      string `toml:"api_key"`
	APISecret   string `toml:"api_secret"`
	SitePath    string `toml:"site_path"`
	PrintFormat string `toml:"print_format"`
}

// StoreSettings locates the local file-record database.
type StoreSettings struct {
	Path string `toml:"path"`
}

// ServerSettings configures the hook and RPC listener.
type ServerSettings struct {
	Listen   string `toml:"listen"`
	APIToken string `toml:"api_token"`
}

// Settings is the full persisted configuration.
type Settings struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Graph      GraphSettings      `toml:"graph"`
	SharePoint SharePointSettings `toml:"sharepoint"`
	Sync       SyncSettings       `toml:"sync"`
	Host       HostSettings       `toml:"host"`
	Store      StoreSettings      `toml:"store"`
	Server     ServerSettings     `toml:"server"`

	path       string
	fileSecret string
}

// Default returns settings with every default applied.
func Default() *Settings {
	return &Settings{
		LogLevel:  "info",
		LogFormat: "text",
		Graph: GraphSettings{
			APIURL:         graph.DefaultGraphURL,
			AuthorityHost:  graph.DefaultAuthorityHost,
			TimeoutSeconds: int(graph.DefaultTimeout / time.Second),
		},
		SharePoint: SharePointSettings{
			FolderStructure: FolderStructureNested,
		},
		Sync: SyncSettings{
			Workers: 2,
		},
		Host: HostSettings{
			PrintFormat: "Standard",
		},
		Server: ServerSettings{
			Listen: "127.0.0.1:8089",
		},
	}
}

// DefaultPath returns the settings file location: SPSYNC_CONFIG when set,
// otherwise settings.toml under the user config directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config directory: %w", err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// Load reads the settings file at path. Missing keys keep their defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := Default()
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	s.path = path
	s.fileSecret = s.Graph.ClientSecret
	s.applyEnv()
	s.fillDefaults()
	return s, nil
}

// LoadOrCreate loads the settings at path, or returns defaults bound to path
// when the file does not exist yet. An empty path selects DefaultPath.
func LoadOrCreate(path string) (*Settings, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	s, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s = Default()
			s.path = path
			s.applyEnv()
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	if secret := os.Getenv(EnvClientSecret); secret != "" {
		s.Graph.ClientSecret = secret
	}
}

func (s *Settings) fillDefaults() {
	d := Default()
	if s.Graph.APIURL == "" {
		s.Graph.APIURL = d.Graph.APIURL
	}
	if s.Graph.AuthorityHost == "" {
		s.Graph.AuthorityHost = d.Graph.AuthorityHost
	}
	if s.Graph.TimeoutSeconds <= 0 {
		s.Graph.TimeoutSeconds = d.Graph.TimeoutSeconds
	}
	if s.SharePoint.FolderStructure == "" {
		s.SharePoint.FolderStructure = d.SharePoint.FolderStructure
	}
	if s.Sync.Workers <= 0 {
		s.Sync.Workers = d.Sync.Workers
	}
	if s.Host.PrintFormat == "" {
		s.Host.PrintFormat = d.Host.PrintFormat
	}
	if s.Server.Listen == "" {
		s.Server.Listen = d.Server.Listen
	}
}

// Path is the file these settings were loaded from and will be saved to.
func (s *Settings) Path() string {
	return s.path
}

// SetPath rebinds the settings to another file.
func (s *Settings) SetPath(path string) {
	s.path = path
}

// Save writes the settings back to their file while holding an exclusive
// lock. A client secret supplied through the environment is not persisted.
func (s *Settings) Save() error {
	if s.path == "" {
		return errors.New("settings have no file path")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), PermSecureDir); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("could not acquire settings lock: %w", err)
	}
	if !locked {
		return errors.New("could not acquire settings lock, another instance may be saving")
	}
	defer lock.Unlock()

	out := *s
	if os.Getenv(EnvClientSecret) != "" {
		out.Graph.ClientSecret = s.fileSecret
	}
	data, err := toml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, PermSecureFile); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

// Validate checks values that would make every sync attempt fail.
func (s *Settings) Validate() error {
	switch s.SharePoint.FolderStructure {
	case FolderStructureFlat, FolderStructureNested:
	default:
		return fmt.Errorf("invalid folder_structure %q: must be %q or %q",
			s.SharePoint.FolderStructure, FolderStructureFlat, FolderStructureNested)
	}
	if s.Graph.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid graph.timeout_seconds %d: must be positive", s.Graph.TimeoutSeconds)
	}
	if s.Sync.Workers <= 0 {
		return fmt.Errorf("invalid sync.workers %d: must be positive", s.Sync.Workers)
	}
	switch s.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", s.LogFormat)
	}
	return nil
}

// Credentials returns the Azure AD credentials for the Graph client.
func (s *Settings) Credentials() graph.Credentials {
	return graph.Credentials{
		TenantID:      s.Graph.TenantID,
		ClientID:      s.Graph.ClientID,
		ClientSecret:  s.Graph.ClientSecret,
		AuthorityHost: s.Graph.AuthorityHost,
	}
}

// Timeout is the per-request Graph timeout.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.Graph.TimeoutSeconds) * time.Second
}

// Flat reports whether uploads go straight into the root folder.
func (s *Settings) Flat() bool {
	return s.SharePoint.FolderStructure == FolderStructureFlat
}

// Redacted returns a copy safe to print.
func (s *Settings) Redacted() *Settings {
	out := *s
	if out.Graph.ClientSecret != "" {
		out.Graph.ClientSecret = "********"
	}
	if out.Host.APISecret != "" {
		out.Host.APISecret = "********"
	}
	if out.Server.APIToken != "" {
		out.Server.APIToken = "********"
	}
	return &out
}

// TOML renders the settings as they would be written to disk.
func (s *Settings) TOML() (string, error) {
	data, err := toml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshalling settings: %w", err)
	}
	return string(data), nil
}

type field struct {
	str  *string
	b    *bool
	i    *int
	mode bool
}

func (s *Settings) fields() map[string]field {
	return map[string]field{
		"log_level":                   {str: &s.LogLevel},
		"log_format":                  {str: &s.LogFormat},
		"graph.tenant_id":             {str: &s.Graph.TenantID},
		"graph.client_id":             {str: &s.Graph.ClientID},
		"graph.client_secret":         {str: &s.Graph.ClientSecret},
		"graph.api_url":               {str: &s.Graph.APIURL},
		"graph.authority_host":        {str: &s.Graph.AuthorityHost},
		"graph.timeout_seconds":       {i: &s.Graph.TimeoutSeconds},
		"sharepoint.site_url":         {str: &s.SharePoint.SiteURL},
		"sharepoint.site_id":          {str: &s.SharePoint.SiteID},
		"sharepoint.drive_id":         {str: &s.SharePoint.DriveID},
		"sharepoint.root_folder_path": {str: &s.SharePoint.RootFolderPath},
		"sharepoint.folder_structure": {str: &s.SharePoint.FolderStructure, mode: true},
		"sync.enable_file_sync":       {b: &s.Sync.EnableFileSync},
		"sync.replace_file_link":      {b: &s.Sync.ReplaceFileLink},
		"sync.workers":                {i: &s.Sync.Workers},
		"host.url":                    {str: &s.Host.URL},
		"host.api_key":                {str: &s.Host.APIKey},
		"host.api_secret":             {str: &s.Host.APISecret},
		"host.site_path":              {str: &s.Host.SitePath},
		"host.print_format":           {str: &s.Host.PrintFormat},
		"store.path":                  {str: &s.Store.Path},
		"server.listen":               {str: &s.Server.Listen},
		"server.api_token":            {str: &s.Server.APIToken},
	}
}

// Keys lists every key accepted by Set, sorted.
func (s *Settings) Keys() []string {
	fields := s.fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one dotted key, such as "sharepoint.drive_id", from its string form.
func (s *Settings) Set(key, value string) error {
	f, ok := s.fields()[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	switch {
	case f.str != nil:
		if f.mode && value != FolderStructureFlat && value != FolderStructureNested {
			return fmt.Errorf("invalid value %q for %s: must be %q or %q", value, key, FolderStructureFlat, FolderStructureNested)
		}
		*f.str = value
		if key == "graph.client_secret" {
			s.fileSecret = value
		}
	case f.b != nil:
		v, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: expected true or false", value, key)
		}
		*f.b = v
	case f.i != nil:
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: expected an integer", value, key)
		}
		*f.i = v
	}
	return nil
}
