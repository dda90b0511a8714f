// Package sources defines where device records come from. A source fetches
// one account's view of its devices; two sources describing the same
// physical devices are reconciled pairwise by id.
//
// Example usage:
//
//	src := sources.NewFileSource(sources.SharingID, "sharing.yaml")
//	if err := sources.Refresh(ctx, src, sources.WithReuseConfig(true)); err != nil {
//	    return err // errors.IsReauthRequired / errors.IsNotReady tell the caller what to do
//	}
//	devices := src.Devices()
package sources

import (
	"context"
	"slices"
	"sync"

	"github.com/agentstation/devmerge/pkg/device"
)

// Sources is a thread-safe container for managing multiple device sources.
type Sources struct {
	mu      sync.RWMutex
	sources map[ID]Source
}

// NewSources creates a new Sources instance.
func NewSources() *Sources {
	return &Sources{
		sources: make(map[ID]Source),
	}
}

// Get returns a source by ID.
func (s *Sources) Get(id ID) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[id]
	return src, found
}

// Set sets a source by ID.
func (s *Sources) Set(id ID, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = src
}

// Delete deletes a source by ID.
func (s *Sources) Delete(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// IDs returns the registered source IDs in sorted order.
func (s *Sources) IDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]ID, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ID represents the identifier of a device source.
type ID string

// String returns the string representation of a source name.
func (id ID) String() string {
	return string(id)
}

// Common source names.
const (
	// SharingID is the local/sharing API account.
	SharingID ID = "sharing"
	// OpenAPIID is the cloud OpenAPI account.
	OpenAPIID ID = "openapi"
)

// Source represents a provider of device records.
type Source interface {
	// ID returns the identifier of this source
	ID() ID

	// Fetch (re)loads the device records of this source
	Fetch(ctx context.Context) error

	// Devices returns the records loaded by the last successful Fetch, keyed by device id
	Devices() map[string]*device.Device

	// Cleanup releases any resources
	Cleanup() error
}
