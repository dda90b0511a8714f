package sources

import (
	"context"
	"os"
	"sync"

	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/logging"
)

// FileSource reads device records from a JSON, YAML or TOML document.
type FileSource struct {
	id   ID
	path string

	mu      sync.RWMutex
	devices map[string]*device.Device
}

// NewFileSource returns a source backed by the file at path.
func NewFileSource(id ID, path string) *FileSource {
	return &FileSource{id: id, path: path}
}

// ID returns the source identifier.
func (s *FileSource) ID() ID { return s.id }

// Path returns the backing file path.
func (s *FileSource) Path() string { return s.path }

// Fetch reads and decodes the file.
func (s *FileSource) Fetch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	format, err := device.FormatFromPath(s.path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &errors.NotFoundError{Resource: "device file", ID: s.path}
		}
		return errors.WrapIO("read", s.path, err)
	}

	doc, err := device.Decode(data, format)
	if err != nil {
		return &errors.ParseError{Format: string(format), File: s.path, Message: "invalid device document", Err: err}
	}

	devices := make(map[string]*device.Device, len(doc.Devices))
	for _, d := range doc.Devices {
		if d == nil || d.ID == "" {
			logging.FromContext(ctx).Warn().
				Str("source", s.id.String()).
				Str("file", s.path).
				Msg("Skipping device record without id")
			continue
		}
		devices[d.ID] = d
	}

	s.mu.Lock()
	s.devices = devices
	s.mu.Unlock()

	logging.FromContext(ctx).Debug().
		Str("source", s.id.String()).
		Int("devices", len(devices)).
		Msg("Loaded device file")
	return nil
}

// Devices returns the loaded records.
func (s *FileSource) Devices() map[string]*device.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*device.Device, len(s.devices))
	for id, d := range s.devices {
		out[id] = d
	}
	return out
}

// Cleanup is a no-op for files.
func (s *FileSource) Cleanup() error { return nil }
