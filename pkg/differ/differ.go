package differ

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/device"
)

// Differ handles change detection between two versions of a device.
type Differ interface {
	// Devices compares a device snapshot with its current state
	Devices(before, after *device.Device) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
	valueLimit   int
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: make(map[string]bool),
		valueLimit:   120,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Devices compares before and after table by table.
func (diff *differ) Devices(before, after *device.Device) *Changeset {
	if before == nil {
		before = &device.Device{}
	}
	if after == nil {
		after = &device.Device{}
	}

	cs := &Changeset{DeviceID: after.ID}
	if cs.DeviceID == "" {
		cs.DeviceID = before.ID
	}

	tables := []struct {
		name   string
		before map[string]map[string]any
		after  map[string]map[string]any
	}{
		{constants.TableStatusRange, flattenStatusRange(before), flattenStatusRange(after)},
		{constants.TableFunction, flattenFunction(before), flattenFunction(after)},
		{constants.TableStatus, flattenStatus(before), flattenStatus(after)},
		{constants.TableLocalStrategy, flattenStrategy(before), flattenStrategy(after)},
	}
	for _, t := range tables {
		if diff.ignoreFields[t.name] {
			continue
		}
		cs.Tables = append(cs.Tables, diff.table(t.name, t.before, t.after))
	}

	if before.DataModel != after.DataModel && !diff.ignoreFields["data_model"] {
		cs.Fields = append(cs.Fields, diff.change("data_model", before.DataModel, after.DataModel))
	}
	if before.SetUp != after.SetUp && !diff.ignoreFields["set_up"] {
		cs.Fields = append(cs.Fields, diff.change("set_up", before.SetUp, after.SetUp))
	}

	cs.Summary = calculateSummary(cs.Tables, cs.Fields)
	return cs
}

func (diff *differ) table(name string, before, after map[string]map[string]any) *TableChangeset {
	tc := &TableChangeset{Table: name}

	for _, key := range sortedKeys(after) {
		old, existed := before[key]
		if !existed {
			tc.Added = append(tc.Added, key)
			continue
		}
		if changes := diff.fields(old, after[key]); len(changes) > 0 {
			tc.Updated = append(tc.Updated, EntryUpdate{Key: key, Changes: changes})
		}
	}
	for _, key := range sortedKeys(before) {
		if _, ok := after[key]; !ok {
			tc.Removed = append(tc.Removed, key)
		}
	}
	return tc
}

func (diff *differ) fields(before, after map[string]any) []FieldChange {
	var changes []FieldChange
	paths := make(map[string]struct{})
	for p := range before {
		paths[p] = struct{}{}
	}
	for p := range after {
		paths[p] = struct{}{}
	}

	for _, p := range sortedKeys(paths) {
		if diff.ignoreFields[p] {
			continue
		}
		old, hadOld := before[p]
		cur, hasCur := after[p]
		switch {
		case !hadOld:
			c := diff.change(p, nil, cur)
			c.Type = ChangeTypeAdd
			changes = append(changes, c)
		case !hasCur:
			c := diff.change(p, old, nil)
			c.Type = ChangeTypeRemove
			changes = append(changes, c)
		case !reflect.DeepEqual(old, cur):
			changes = append(changes, diff.change(p, old, cur))
		}
	}
	return changes
}

func (diff *differ) change(path string, old, cur any) FieldChange {
	return FieldChange{
		Path:     path,
		OldValue: diff.render(old),
		NewValue: diff.render(cur),
		Type:     ChangeTypeUpdate,
	}
}

func (diff *differ) render(v any) string {
	if v == nil {
		return ""
	}
	return truncateString(fmt.Sprint(v), diff.valueLimit)
}

func flattenStatusRange(d *device.Device) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, code := range d.StatusRange.Keys() {
		sr, _ := d.StatusRange.Get(code)
		if sr == nil {
			out[code] = map[string]any{}
			continue
		}
		out[code] = map[string]any{
			constants.FieldCode:   sr.Code,
			constants.FieldType:   sr.Type,
			constants.FieldValues: sr.Values,
			constants.FieldDPID:   int(sr.DPID),
		}
	}
	return out
}

func flattenFunction(d *device.Device) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, code := range d.Function.Keys() {
		fn, _ := d.Function.Get(code)
		if fn == nil {
			out[code] = map[string]any{}
			continue
		}
		out[code] = map[string]any{
			constants.FieldCode:   fn.Code,
			constants.FieldType:   fn.Type,
			constants.FieldDesc:   fn.Desc,
			constants.FieldName:   fn.Name,
			constants.FieldValues: fn.Values,
			constants.FieldDPID:   int(fn.DPID),
		}
	}
	return out
}

func flattenStatus(d *device.Device) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, code := range d.Status.Keys() {
		v, _ := d.Status.Get(code)
		out[code] = map[string]any{"value": v}
	}
	return out
}

func flattenStrategy(d *device.Device) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, id := range d.LocalStrategy.Keys() {
		s, _ := d.LocalStrategy.Get(id)
		flat := make(map[string]any)
		flatten("", map[string]any(s), flat)
		out[strconv.Itoa(int(id))] = flat
	}
	return out
}

// flatten writes nested maps as dotted paths.
func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(path, nested, out)
			continue
		}
		out[path] = v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// truncateString shortens s to maxLen runes, adding "..." when cut.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
