// Package constants provides shared constants used throughout the devmerge codebase.
// This includes the wire-level keys of strategy entries, sentinel values recognised
// during reconciliation, file permissions, and concurrency limits.
package constants

import "time"

// Strategy entry keys as they appear in a device's local_strategy table
const (
	// KeyConfigItem holds the nested value descriptor of a datapoint
	KeyConfigItem = "config_item"

	// KeyValueType is the declared data-type inside a config item
	KeyValueType = "valueType"

	// KeyValueDesc is the JSON value descriptor inside a config item
	KeyValueDesc = "valueDesc"

	// KeyUseOpenAPI selects the cloud OpenAPI transport for a datapoint
	KeyUseOpenAPI = "use_open_api"

	// KeyPropertyUpdate selects property-style updates over the OpenAPI transport
	KeyPropertyUpdate = "property_update"

	// KeyStatusCode names the status key associated with a datapoint id
	KeyStatusCode = "status_code"

	// KeyValueConvert names the value conversion strategy of a datapoint
	KeyValueConvert = "value_convert"
)

// Sentinel values
const (
	// ValueConvertDefault is the conversion strategy considered inferior to any named one
	ValueConvertDefault = "default"

	// ErrorValue1 marks a quarantined value descriptor and holds the primary's raw text
	ErrorValue1 = "ErrorValue1"

	// ErrorValue2 holds the secondary's raw text inside a quarantined value descriptor
	ErrorValue2 = "ErrorValue2"

	// JSONMarker is the rendered path segment for descent into string-embedded JSON
	JSONMarker = "@JSON@"

	// EmptyDescriptor is written in place of blank value descriptors
	EmptyDescriptor = "{}"
)

// Descriptor field names shared by status ranges and functions
const (
	FieldCode   = "code"
	FieldType   = "type"
	FieldValues = "values"
	FieldDPID   = "dp_id"
	FieldName   = "name"
	FieldDesc   = "desc"
)

// Table names used as root paths in diagnostics and provenance
const (
	TableStatusRange   = "status_range"
	TableFunction      = "function"
	TableStatus        = "status"
	TableLocalStrategy = "local_strategy"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// MaxConcurrentMerges bounds how many distinct device pairs reconcile at once
	MaxConcurrentMerges = 8

	// ShutdownTimeout is how long the CLI waits for cleanup after an error
	ShutdownTimeout = 5 * time.Second
)

// Refresh failure markers
const (
	// SignInvalidMarker appears in token failures raised by the sharing API client
	SignInvalidMarker = "sign invalid"
)
