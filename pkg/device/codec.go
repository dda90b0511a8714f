package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/devmerge/pkg/errors"
)

// Format is a device document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", &errors.ValidationError{
			Field:   "path",
			Value:   path,
			Message: "unsupported device file extension",
		}
	}
}

// Document is a device file: a list of device records from one source.
type Document struct {
	Source  string    `json:"source,omitempty"`
	Devices []*Device `json:"devices"`
}

// Decode parses a device document. YAML and TOML documents are normalized
// to JSON first so every format shares the JSON field mapping.
func Decode(data []byte, format Format) (*Document, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapParse(string(format), "", err)
	}
	for _, d := range doc.Devices {
		if d == nil {
			continue
		}
		d.EnsureTables()
	}
	return &doc, nil
}

func toJSON(data []byte, format Format) ([]byte, error) {
	var generic map[string]any
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, errors.WrapParse("yaml", "", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &generic); err != nil {
			return nil, errors.WrapParse("toml", "", err)
		}
	default:
		return nil, &errors.ValidationError{Field: "format", Value: format, Message: "unsupported format"}
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, errors.WrapParse(string(format), "", err)
	}
	return raw, nil
}

// Encode renders v (a device, document or any JSON-encodable value) in the
// given format. TOML output is not supported.
func Encode(v any, format Format) ([]byte, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return append(raw, '\n'), nil
	case FormatYAML:
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("encode %s document: %w", format, errors.ErrUnsupported)
	}
}
