package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/spsync/internal/admin"
	"github.com/tonimelisma/spsync/internal/bundle"
	"github.com/tonimelisma/spsync/internal/config"
	"github.com/tonimelisma/spsync/internal/filestore"
	"github.com/tonimelisma/spsync/internal/hooks"
	"github.com/tonimelisma/spsync/internal/jobs"
	"github.com/tonimelisma/spsync/internal/logger"
	"github.com/tonimelisma/spsync/internal/sharepoint"
	"github.com/tonimelisma/spsync/pkg/graph"
)

// StoreFileName is the database created next to the settings file when no
// store path is configured.
const StoreFileName = "spsync.db"

// App holds the loaded settings and the services built from them.
type App struct {
	Settings *config.Settings
	Logger   logger.Logger
	Services *Services
	SDK      SDK
}

// Services are the long-lived components shared by CLI commands and the
// HTTP server.
type Services struct {
	Graph    *graph.Client
	Store    *filestore.Store
	Resolver *sharepoint.Resolver
	Uploader *sharepoint.Uploader
	Builder  *bundle.Builder
	Admin    *admin.Service
	Queue    *jobs.Queue
	Hooks    *hooks.Handler
}

// NewApp loads the settings named by the --config flag (or the default
// location), sets up logging from --debug and builds every service.
func NewApp(cmd *cobra.Command) (*App, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("locating settings: %w", err)
		}
	}

	settings, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	log := logger.New(settings.LogLevel, settings.LogFormat, debug)

	return New(settings, log)
}

// New builds an App from already loaded settings.
func New(settings *config.Settings, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NoopLogger{}
	}
	services, err := Build(settings, log)
	if err != nil {
		return nil, err
	}
	return &App{
		Settings: settings,
		Logger:   log,
		Services: services,
		SDK:      NewLiveSDK(services),
	}, nil
}

// Build wires the services for settings.
func Build(settings *config.Settings, log logger.Logger) (*Services, error) {
	store, err := filestore.Open(StorePath(settings))
	if err != nil {
		return nil, fmt.Errorf("opening file store: %w", err)
	}

	client := graph.NewClient(settings.Credentials(), settings.Graph.APIURL, settings.Timeout(), log.With("component", "graph"))
	resolver := sharepoint.NewResolver(settings, store, log.With("component", "resolver"))
	uploader := sharepoint.NewUploader(settings, client, resolver, store, log.With("component", "uploader"))

	var renderer bundle.Renderer
	if settings.Host.URL != "" {
		renderer = bundle.NewHostRenderer(settings)
	}
	builder := bundle.NewBuilder(settings, renderer, store, uploader, log.With("component", "bundle"))

	queue := jobs.NewQueue(settings.Sync.Workers, 0, log.With("component", "jobs"))

	return &Services{
		Graph:    client,
		Store:    store,
		Resolver: resolver,
		Uploader: uploader,
		Builder:  builder,
		Admin:    admin.NewService(client, log.With("component", "admin")),
		Queue:    queue,
		Hooks:    hooks.NewHandler(settings, store, queue, uploader, log.With("component", "hooks")),
	}, nil
}

// StorePath is the configured store location, defaulting to a file next to
// the settings file, or an in-memory database when settings have no file.
func StorePath(settings *config.Settings) string {
	if settings.Store.Path != "" {
		return settings.Store.Path
	}
	if settings.Path() == "" {
		return filestore.MemoryPath
	}
	return filepath.Join(filepath.Dir(settings.Path()), StoreFileName)
}

// Close releases the services' resources.
func (a *App) Close() error {
	if a.Services == nil || a.Services.Store == nil {
		return nil
	}
	return a.Services.Store.Close()
}
