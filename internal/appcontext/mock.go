package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/devmerge"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value; clients
// default to real ones built from the given options.
type Mock struct {
	ClientFunc            func() (devmerge.Client, error)
	ClientWithOptionsFunc func(...devmerge.Option) (devmerge.Client, error)
	LoggerFunc            func() *zerolog.Logger
	Format                string
	Provenance            bool
	Diagnostics           bool
	VersionFunc           func() string
	CommitFunc            func() string
	DateFunc              func() string
	BuiltByFunc           func() string
}

// Client returns a client using the mock function or a default client.
func (m *Mock) Client() (devmerge.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return devmerge.New()
}

// ClientWithOptions returns a client using the mock function or a new client.
func (m *Mock) ClientWithOptions(opts ...devmerge.Option) (devmerge.Client, error) {
	if m.ClientWithOptionsFunc != nil {
		return m.ClientWithOptionsFunc(opts...)
	}
	return devmerge.New(opts...)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the configured format.
func (m *Mock) OutputFormat() string {
	return m.Format
}

// ProvenanceEnabled returns the configured flag.
func (m *Mock) ProvenanceEnabled() bool {
	return m.Provenance
}

// ShowDiagnostics returns the configured flag.
func (m *Mock) ShowDiagnostics() bool {
	return m.Diagnostics
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
