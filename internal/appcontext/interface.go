// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface rather
// than on the concrete CLI application.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/comicmap"
)

// Interface defines what commands need from the application.
// The App struct from cmd/comicmap/app implements it; tests use Mock.
type Interface interface {
	// Client returns the comicmap client, creating it lazily on first use.
	// Background loops are not started by Client.
	Client() (comicmap.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
