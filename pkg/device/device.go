// Package device defines the device record reconciled by devmerge: its four
// mergeable tables, the schema descriptors they hold and the strategy
// entries that drive command routing.
package device

import (
	"fmt"
	"maps"
	"slices"
)

// Device is one source's description of a physical device.
//
// The four tables are shared handles. After reconciliation two Device values
// for the same physical device intentionally point at the same tables.
type Device struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	ProductID string `json:"product_id,omitempty" yaml:"product_id,omitempty"`

	StatusRange   *Table[string, *StatusRange] `json:"status_range" yaml:"status_range"`
	Function      *Table[string, *Function]    `json:"function" yaml:"function"`
	Status        *Table[string, any]          `json:"status" yaml:"status"`
	LocalStrategy *Table[DPID, Strategy]       `json:"local_strategy" yaml:"local_strategy"`

	DataModel string `json:"data_model,omitempty" yaml:"data_model,omitempty"`
	SetUp     bool   `json:"set_up,omitempty" yaml:"set_up,omitempty"`
}

// New returns a device with empty tables.
func New(id string) *Device {
	d := &Device{ID: id}
	d.EnsureTables()
	return d
}

// EnsureTables allocates any missing table.
func (d *Device) EnsureTables() {
	if d.StatusRange == nil {
		d.StatusRange = NewTable[string, *StatusRange]()
	}
	if d.Function == nil {
		d.Function = NewTable[string, *Function]()
	}
	if d.Status == nil {
		d.Status = NewTable[string, any]()
	}
	if d.LocalStrategy == nil {
		d.LocalStrategy = NewTable[DPID, Strategy]()
	}
}

// SharesTablesWith reports whether d and o hold the same four table handles.
func (d *Device) SharesTablesWith(o *Device) bool {
	return d.StatusRange == o.StatusRange &&
		d.Function == o.Function &&
		d.Status == o.Status &&
		d.LocalStrategy == o.LocalStrategy
}

// StatusValue returns the runtime value reported for code.
func (d *Device) StatusValue(code string) (any, bool) {
	if d.Status == nil {
		return nil, false
	}
	v, ok := d.Status.Get(code)
	return v, ok && v != nil
}

// Copy returns a deep copy of the device, with tables of its own.
func (d *Device) Copy() *Device {
	if d == nil {
		return nil
	}
	c := *d
	c.StatusRange = NewTable[string, *StatusRange]()
	c.Function = NewTable[string, *Function]()
	c.Status = NewTable[string, any]()
	c.LocalStrategy = NewTable[DPID, Strategy]()

	for code, sr := range d.StatusRange.Map() {
		c.StatusRange.Set(code, sr.Copy())
	}
	for code, fn := range d.Function.Map() {
		c.Function.Set(code, fn.Copy())
	}
	for code, v := range d.Status.Map() {
		c.Status.Set(code, copyAny(v))
	}
	for id, s := range d.LocalStrategy.Map() {
		c.LocalStrategy.Set(id, s.Copy())
	}
	return &c
}

// String identifies the device in log output.
func (d *Device) String() string {
	if d == nil {
		return "<nil device>"
	}
	name := d.Name
	if name == "" {
		name = "unnamed"
	}
	return fmt.Sprintf("%s (%s) status_range=%d function=%d status=%d local_strategy=%d",
		d.ID, name, d.StatusRange.Len(), d.Function.Len(), d.Status.Len(), d.LocalStrategy.Len())
}

// DPIDForCode resolves the datapoint id behind a status or function code.
// Strategy entries are consulted first, then descriptor dp ids.
func (d *Device) DPIDForCode(code string) (DPID, bool) {
	for _, id := range d.LocalStrategy.Keys() {
		s, _ := d.LocalStrategy.Get(id)
		if s.StatusCode() == code {
			return id, true
		}
	}
	if fn, ok := d.Function.Get(code); ok && fn != nil && fn.DPID != 0 {
		return fn.DPID, true
	}
	if sr, ok := d.StatusRange.Get(code); ok && sr != nil && sr.DPID != 0 {
		return sr.DPID, true
	}
	return 0, false
}

// Codes returns the union of status_range and function codes.
func (d *Device) Codes() []string {
	set := make(map[string]struct{})
	for _, code := range d.StatusRange.Keys() {
		set[code] = struct{}{}
	}
	for _, code := range d.Function.Keys() {
		set[code] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}
