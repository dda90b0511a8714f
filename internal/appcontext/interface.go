// Package appcontext provides the shared application context interface
// used by all commands. This eliminates interface duplication across
// command packages and provides a single source of truth for app dependencies.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/devmerge"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/devmerge/app implements this interface, so
// commands can be tested with Mock instead.
type Interface interface {
	// Client returns the default devmerge client, creating it lazily if needed.
	Client() (devmerge.Client, error)

	// ClientWithOptions creates a new client with extra options, e.g. a
	// command-local provenance tracker.
	ClientWithOptions(...devmerge.Option) (devmerge.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// ProvenanceEnabled reports whether decision tracking is on by default.
	ProvenanceEnabled() bool

	// ShowDiagnostics reports whether merge conflicts are printed.
	ShowDiagnostics() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
