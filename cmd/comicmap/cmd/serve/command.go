// Package serve provides the command that exposes the collection over HTTP.
package serve

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentstation/comicmap/internal/appcontext"
	"github.com/agentstation/comicmap/internal/server"
	"github.com/agentstation/comicmap/pkg/errors"
)

// NewCommand creates the serve command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Serve the collection over HTTP with live change events",
		Long: `Serve starts a JSON API over the tracked collection.

Endpoints (under --prefix, default /api/v1):
  GET  /comics                 list, with ?sort=title|chapters|updated&genre=&limit=
  GET  /comics/lookup?source=  a single series by source URL
  POST /cycles/ingest          run an ingest cycle now
  POST /cycles/refresh         run a refresh cycle now
  GET  /updates/ws             WebSocket change events
  GET  /updates/stream         Server-Sent Events change events
  GET  /health, /ready, /stats

The ingest and refresh loops run alongside the server unless
--no-auto-updates is given. HTTP_HOST and HTTP_PORT override the flags.`,
		Example: `  # Serve on the default port with background loops
  comicmap serve

  # Allow a web frontend and trigger cycles only by hand
  comicmap serve --cors-origins https://example.com --no-auto-updates`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd, app, cfg)
		},
	}

	addFlags(cmd.Flags(), defaults)
	return cmd
}

func addFlags(flags *pflag.FlagSet, defaults server.Config) {
	flags.String("host", defaults.Host, "bind address")
	flags.Int("port", defaults.Port, "server port")
	flags.String("prefix", defaults.PathPrefix, "API path prefix")
	flags.Bool("cors", false, "enable CORS for all origins")
	flags.StringSlice("cors-origins", nil, "allowed CORS origins (implies --cors)")
	flags.Int("rate-limit", defaults.RateLimit, "cycle triggers per minute per client (0 to disable)")
	flags.Duration("cache-ttl", defaults.CacheTTL, "TTL for cached collection reads")
	flags.Bool("no-auto-updates", false, "do not run the ingest and refresh loops")
	flags.SortFlags = false
}

func runServer(cmd *cobra.Command, app appcontext.Interface, cfg server.Config) error {
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	srv, err := server.New(client, cfg, logger)
	if err != nil {
		return err
	}
	srv.Start()

	if !mustGetBool(cmd, "no-auto-updates") {
		if err := client.AutoUpdatesOn(); err != nil {
			return err
		}
		defer func() {
			if err := client.AutoUpdatesOff(); err != nil {
				logger.Error().Err(err).Msg("Failed to stop auto-updates")
			}
		}()
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting API server")

	return srv.ListenAndServe(cmd.Context())
}

// parseConfig reads the flags into a server config, applying the
// HTTP_HOST and HTTP_PORT environment overrides.
func parseConfig(cmd *cobra.Command) (server.Config, error) {
	cfg := server.DefaultConfig()
	cfg.Host = mustGetString(cmd, "host")
	cfg.Port = mustGetInt(cmd, "port")
	cfg.PathPrefix = mustGetString(cmd, "prefix")
	cfg.CORSEnabled = mustGetBool(cmd, "cors")
	cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	cfg.CacheTTL = mustGetDuration(cmd, "cache-ttl")

	if len(cfg.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
	}
	if host := os.Getenv("HTTP_HOST"); host != "" {
		cfg.Host = host
	}
	if s := os.Getenv("HTTP_PORT"); s != "" {
		port, err := strconv.Atoi(s)
		if err != nil {
			return cfg, &errors.ValidationError{Field: "HTTP_PORT", Value: s, Message: "must be a port number"}
		}
		cfg.Port = port
	}

	return cfg, cfg.Validate()
}

// The flags below are all defined in NewCommand; a lookup failure is a
// programming error.

func mustGetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	v, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}
