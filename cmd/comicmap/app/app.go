// Package app provides the application context and dependency management
// for the comicmap CLI. It centralizes configuration, logging and the
// lifecycle of the comicmap client.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/comicmap"
	"github.com/agentstation/comicmap/internal/appcontext"
	"github.com/agentstation/comicmap/internal/store/github"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the comicmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// lazily created, see Client
	mu     sync.RWMutex
	client comicmap.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
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

// Client returns the comicmap client, creating it on first use.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (comicmap.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.clientOptions()
	if err != nil {
		return nil, err
	}
	c, err := comicmap.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	a.client = c
	return c, nil
}

// Shutdown stops background loops if a client was created.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.RLock()
	c := a.client
	a.mu.RUnlock()

	if c != nil {
		if err := c.AutoUpdatesOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto-updates during shutdown")
			return err
		}
	}
	return nil
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() ([]comicmap.Option, error) {
	cfg := a.config
	opts := []comicmap.Option{
		comicmap.WithDataDir(cfg.DataDir),
		comicmap.WithUserAgent(cfg.UserAgent),
		comicmap.WithMangaDexAPIURL(cfg.MangaDexAPIURL),
		comicmap.WithMangaDexLanguage(cfg.MangaDexLanguage),
		comicmap.WithIngestInterval(cfg.IngestInterval),
		comicmap.WithRefreshInterval(cfg.RefreshInterval),
		comicmap.WithOverwritePush(cfg.OverwritePush),
	}

	if cfg.RequestsURL != "" {
		opts = append(opts, comicmap.WithRequestsURL(cfg.RequestsURL))
	} else {
		a.logger.Warn().Msg("No requests_url configured, ingesting from the local request list only")
	}

	if cfg.GitHubRepo != "" {
		if cfg.GitHubToken == "" {
			return nil, errors.NewConfigError("github", "github_token (or GITHUB_TOKEN) is required with github_repo", nil)
		}
		opts = append(opts,
			comicmap.WithGitHub(github.Config{
				Repo:   cfg.GitHubRepo,
				Branch: cfg.GitHubBranch,
				Token:  cfg.GitHubToken,
				APIURL: cfg.GitHubAPIURL,
			}),
			comicmap.WithRemoteKey(cfg.GitHubPath),
		)
	} else {
		a.logger.Warn().Msg("No github_repo configured, the collection is kept locally only")
	}

	return opts, nil
}

// applyLogger installs the logger as the process default so library
// packages log through it.
func (a *App) applyLogger() {
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
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

// WithClient sets a custom client (useful for testing).
func WithClient(c comicmap.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
