package device

import (
	"maps"

	"github.com/agentstation/devmerge/pkg/constants"
)

// Strategy is a local-strategy entry: open per-datapoint transport and
// conversion metadata. Recognized keys are in package constants.
type Strategy map[string]any

// ConfigItem returns the nested config_item record, if any.
func (s Strategy) ConfigItem() (map[string]any, bool) {
	item, ok := s[constants.KeyConfigItem].(map[string]any)
	return item, ok && item != nil
}

// UseOpenAPI reports whether the datapoint is driven through the OpenAPI surface.
func (s Strategy) UseOpenAPI() bool {
	return Truthy(s[constants.KeyUseOpenAPI])
}

// PropertyUpdate reports whether commands are sent as property updates.
func (s Strategy) PropertyUpdate() bool {
	return Truthy(s[constants.KeyPropertyUpdate])
}

// StatusCode returns the status key associated with the datapoint.
func (s Strategy) StatusCode() string {
	code, _ := s[constants.KeyStatusCode].(string)
	return code
}

// ValueConvert returns the value conversion strategy and whether it is set.
func (s Strategy) ValueConvert() (any, bool) {
	v, ok := s[constants.KeyValueConvert]
	return v, ok && v != nil
}

// Copy returns a deep copy of the entry.
func (s Strategy) Copy() Strategy {
	if s == nil {
		return nil
	}
	return Strategy(copyAny(map[string]any(s)).(map[string]any))
}

// Truthy reports whether v counts as set: nil, false, zero numbers, empty
// strings and empty collections are falsy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

// copyAny deep-copies the JSON-shaped parts of v.
func copyAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := maps.Clone(x)
		for k, item := range out {
			out[k] = copyAny(item)
		}
		return out
	case Strategy:
		return Strategy(copyAny(map[string]any(x)).(map[string]any))
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = copyAny(item)
		}
		return out
	default:
		return v
	}
}
