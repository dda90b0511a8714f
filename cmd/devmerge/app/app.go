// Package app provides the application context and dependency management
// for the devmerge CLI. It centralizes configuration, logging and the
// devmerge client shared by all commands.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/devmerge"
	"github.com/agentstation/devmerge/internal/appcontext"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/logging"
	"github.com/agentstation/devmerge/pkg/reconciler"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the devmerge application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client devmerge.Client
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration loaded from the environment
// and config file, which can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "failed to load configuration", err)
	}
	app.config = config

	app.setLogger(NewLogger(config))

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// setLogger installs logger as the app and library default logger.
func (a *App) setLogger(logger zerolog.Logger) {
	a.logger = &logger
	logging.SetDefault(logger)
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// ProvenanceEnabled reports whether decision tracking is on by default.
func (a *App) ProvenanceEnabled() bool {
	return a.config.Provenance
}

// ShowDiagnostics reports whether merge conflicts are printed.
func (a *App) ShowDiagnostics() bool {
	return a.config.Diagnostics
}

// Client returns the devmerge client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (devmerge.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	opts := a.buildClientOptions()
	if a.config.Provenance {
		opts = append(opts, devmerge.WithReconcilerOptions(reconciler.WithProvenance(true)))
	}

	c, err := devmerge.New(opts...)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// ClientWithOptions returns a new client with the configured concurrency
// plus opts. Provenance is left to the caller.
func (a *App) ClientWithOptions(opts ...devmerge.Option) (devmerge.Client, error) {
	return devmerge.New(append(a.buildClientOptions(), opts...)...)
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	a.client = nil
	a.mu.Unlock()
	return nil
}

// buildClientOptions constructs client options from the app configuration.
func (a *App) buildClientOptions() []devmerge.Option {
	var opts []devmerge.Option

	if a.config.MaxConcurrency > 0 {
		opts = append(opts, devmerge.WithMaxConcurrency(a.config.MaxConcurrency))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c devmerge.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
