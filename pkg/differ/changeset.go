// Package differ compares a device before and after reconciliation.
package differ

import (
	"fmt"
	"io"
	"strings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates an item was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates an item was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates an item was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`                               // Field path (e.g., "values", "config_item.valueType")
	OldValue string     `json:"old_value,omitempty" yaml:"old_value,omitempty"` // Previous value (string representation)
	NewValue string     `json:"new_value,omitempty" yaml:"new_value,omitempty"` // New value (string representation)
	Type     ChangeType `json:"type" yaml:"type"`
}

// EntryUpdate represents an update to an existing table entry.
type EntryUpdate struct {
	Key     string        `json:"key" yaml:"key"`
	Changes []FieldChange `json:"changes" yaml:"changes"`
}

// TableChangeset represents changes to one of the four device tables.
type TableChangeset struct {
	Table   string        `json:"table" yaml:"table"`
	Added   []string      `json:"added,omitempty" yaml:"added,omitempty"`
	Updated []EntryUpdate `json:"updated,omitempty" yaml:"updated,omitempty"`
	Removed []string      `json:"removed,omitempty" yaml:"removed,omitempty"`
}

// HasChanges returns true if the table changeset contains any changes.
func (t *TableChangeset) HasChanges() bool {
	return len(t.Added) > 0 || len(t.Updated) > 0 || len(t.Removed) > 0
}

// Changeset represents all changes made to one device.
type Changeset struct {
	DeviceID string            `json:"device_id" yaml:"device_id"`
	Tables   []*TableChangeset `json:"tables" yaml:"tables"`
	Fields   []FieldChange     `json:"fields,omitempty" yaml:"fields,omitempty"` // data_model, set_up
	Summary  ChangesetSummary  `json:"summary" yaml:"summary"`
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	Added        int `json:"added" yaml:"added"`
	Updated      int `json:"updated" yaml:"updated"`
	Removed      int `json:"removed" yaml:"removed"`
	TotalChanges int `json:"total_changes" yaml:"total_changes"`
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Summary.TotalChanges == 0
}

// Table returns the changeset for a table by name.
func (c *Changeset) Table(name string) *TableChangeset {
	for _, t := range c.Tables {
		if t.Table == name {
			return t
		}
	}
	return nil
}

func calculateSummary(tables []*TableChangeset, fields []FieldChange) ChangesetSummary {
	var s ChangesetSummary
	for _, t := range tables {
		s.Added += len(t.Added)
		s.Updated += len(t.Updated)
		s.Removed += len(t.Removed)
	}
	s.Updated += len(fields)
	s.TotalChanges = s.Added + s.Updated + s.Removed
	return s
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return fmt.Sprintf("%s: no changes", c.DeviceID)
	}

	var parts []string
	for _, t := range c.Tables {
		if !t.HasChanges() {
			continue
		}
		var tableParts []string
		if len(t.Added) > 0 {
			tableParts = append(tableParts, fmt.Sprintf("%d added", len(t.Added)))
		}
		if len(t.Updated) > 0 {
			tableParts = append(tableParts, fmt.Sprintf("%d updated", len(t.Updated)))
		}
		if len(t.Removed) > 0 {
			tableParts = append(tableParts, fmt.Sprintf("%d removed", len(t.Removed)))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", t.Table, strings.Join(tableParts, ", ")))
	}
	if len(c.Fields) > 0 {
		parts = append(parts, fmt.Sprintf("fields: %d updated", len(c.Fields)))
	}

	return fmt.Sprintf("%s: %s (Total: %d changes)", c.DeviceID, strings.Join(parts, "; "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, t := range c.Tables {
		if !t.HasChanges() {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", t.Table)
		for _, key := range t.Added {
			fmt.Fprintf(w, "  + %s\n", key)
		}
		for _, update := range t.Updated {
			fmt.Fprintf(w, "  ~ %s:\n", update.Key)
			for _, change := range update.Changes {
				fmt.Fprintf(w, "    - %s: %s → %s\n", change.Path, change.OldValue, change.NewValue)
			}
		}
		for _, key := range t.Removed {
			fmt.Fprintf(w, "  - %s\n", key)
		}
	}
	for _, change := range c.Fields {
		fmt.Fprintf(w, "\n%s: %s → %s\n", change.Path, change.OldValue, change.NewValue)
	}
}
