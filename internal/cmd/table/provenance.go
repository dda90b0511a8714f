package table

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/devmerge/pkg/provenance"
)

// ProvenanceToTableData converts provenance history to table format.
// Keys are "table:key" datapoints; each decision is one row, newest first.
func ProvenanceToTableData(datapoints map[string][]provenance.Provenance) Data {
	var rows [][]string

	// Sort datapoints alphabetically
	keys := make([]string, 0, len(datapoints))
	for key := range datapoints {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		history := datapoints[key]
		if len(history) == 0 {
			continue
		}

		sortedHistory := make([]provenance.Provenance, len(history))
		copy(sortedHistory, history)
		sort.SliceStable(sortedHistory, func(i, j int) bool {
			return sortedHistory[i].Timestamp.After(sortedHistory[j].Timestamp)
		})

		for i, entry := range sortedHistory {
			// Key only on first row, blank for older entries
			name := ""
			currentIndicator := ""
			if i == 0 {
				name = key
				currentIndicator = "→"
			}

			field := entry.Field
			if field == "" {
				field = "*"
			}

			rows = append(rows, []string{
				name,
				currentIndicator,
				entry.Step,
				field,
				string(entry.Winner),
				formatValueAsYAML(entry.Value),
				formatTimestamp(entry.Timestamp),
				entry.Reason,
			})
		}
	}

	return Data{
		Headers: []string{"Datapoint", "Curr", "Step", "Field", "Winner", "Value", "When", "Reason"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft,   // Datapoint
			AlignCenter, // Curr
			AlignLeft,   // Step
			AlignLeft,   // Field
			AlignLeft,   // Winner
			AlignLeft,   // Value
			AlignLeft,   // When
			AlignLeft,   // Reason
		},
	}
}

// FilterProvenance keeps the datapoints matching any pattern.
func FilterProvenance(datapoints map[string][]provenance.Provenance, patterns []string) map[string][]provenance.Provenance {
	out := make(map[string][]provenance.Provenance, len(datapoints))
	for key, history := range datapoints {
		if MatchField(key, patterns) {
			out[key] = history
		}
	}
	return out
}

// MatchField checks if a field matches any of the provided patterns.
// Supports wildcard matching (e.g., "local_strategy:*" matches "local_strategy:1").
// Matching is case-insensitive for better user experience.
func MatchField(field string, patterns []string) bool {
	if len(patterns) == 0 {
		return true // No patterns means match all
	}

	// Convert field to lowercase for case-insensitive matching
	fieldLower := strings.ToLower(field)

	for _, pattern := range patterns {
		// Convert pattern to lowercase for case-insensitive matching
		patternLower := strings.ToLower(pattern)

		matched, err := filepath.Match(patternLower, fieldLower)
		if err == nil && matched {
			return true
		}

		// Also support prefix matching for patterns like "config_item.*"
		if strings.HasSuffix(patternLower, ".*") {
			prefix := strings.TrimSuffix(patternLower, ".*")
			if strings.HasPrefix(fieldLower, prefix+".") || fieldLower == prefix {
				return true
			}
		}
	}

	return false
}

// formatValueAsYAML formats a provenance value as YAML for display.
// Complex values (maps, slices, structs) are formatted as multi-line YAML.
// Simple values (strings, numbers, bools) are kept as-is.
func formatValueAsYAML(val any) string {
	if val == nil {
		return "<nil>"
	}

	// Handle simple types directly
	switch v := val.(type) {
	case string:
		if v == "" {
			return "<empty>"
		}
		return v
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		// Format numbers nicely
		if fval, ok := v.(float64); ok {
			if fval == float64(int64(fval)) {
				return fmt.Sprintf("%d", int64(fval))
			}
			return fmt.Sprintf("%.2f", fval)
		}
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%t", v)
	}

	// For complex types, use YAML formatting
	yamlBytes, err := yaml.Marshal(val)
	if err != nil {
		// Fall back to simple string representation
		return fmt.Sprintf("%v", val)
	}

	// Convert to string and remove trailing newline
	yamlStr := strings.TrimSuffix(string(yamlBytes), "\n")

	// If it's a simple single-line value, return as-is
	if !strings.Contains(yamlStr, "\n") {
		return yamlStr
	}

	// For multi-line values, return with proper formatting
	return yamlStr
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	// Show relative time for recent timestamps
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%d min ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%d hr ago", hours)
	}
	if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%d days ago", days)
	}

	// For older timestamps, show the date
	return t.Format("2006-01-02 15:04")
}
