package device

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Key is the set of key types a Table may use.
type Key interface {
	~string | ~int
}

// DPID is a numeric datapoint id.
type DPID int

// String returns the decimal form of the id.
func (id DPID) String() string {
	return strconv.Itoa(int(id))
}

// ParseDPID parses a decimal datapoint id.
func ParseDPID(s string) (DPID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse dp id %q: %w", s, err)
	}
	return DPID(n), nil
}

// Table is a shared handle to one of a device's mergeable tables.
//
// After reconciliation two devices hold the same *Table for each of their
// four tables, so a mutation through either device is visible to both.
type Table[K Key, V any] struct {
	entries map[K]V
}

// NewTable returns an empty table.
func NewTable[K Key, V any]() *Table[K, V] {
	return &Table[K, V]{entries: make(map[K]V)}
}

// TableOf returns a table holding a copy of m.
func TableOf[K Key, V any](m map[K]V) *Table[K, V] {
	t := NewTable[K, V]()
	maps.Copy(t.entries, m)
	return t
}

// Get returns the entry stored under k.
func (t *Table[K, V]) Get(k K) (V, bool) {
	if t == nil {
		var zero V
		return zero, false
	}
	v, ok := t.entries[k]
	return v, ok
}

// Set stores v under k.
func (t *Table[K, V]) Set(k K, v V) {
	if t.entries == nil {
		t.entries = make(map[K]V)
	}
	t.entries[k] = v
}

// Delete removes k.
func (t *Table[K, V]) Delete(k K) {
	delete(t.entries, k)
}

// Has reports whether k is present.
func (t *Table[K, V]) Has(k K) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[k]
	return ok
}

// Len returns the number of entries.
func (t *Table[K, V]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Keys returns the keys in ascending order.
func (t *Table[K, V]) Keys() []K {
	if t == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(t.entries))
}

// Map returns a shallow copy of the entries.
func (t *Table[K, V]) Map() map[K]V {
	if t == nil {
		return nil
	}
	return maps.Clone(t.entries)
}

// MarshalJSON encodes the table as a JSON object.
func (t *Table[K, V]) MarshalJSON() ([]byte, error) {
	if t == nil || t.entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.entries)
}

// UnmarshalJSON decodes a JSON object into the table, replacing its entries.
func (t *Table[K, V]) UnmarshalJSON(data []byte) error {
	entries := make(map[K]V)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	t.entries = entries
	return nil
}
