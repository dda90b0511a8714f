// Package schema holds the schema-normalization collaborators used during
// reconciliation: fixers that repair one device's descriptors in place and
// the aligner that reconciles two value descriptors field by field.
package schema

import (
	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/device"
)

// Fixer normalizes a single device's schema fragments in place.
// Implementations must be safe for concurrent use on distinct devices.
type Fixer interface {
	Fix(d *device.Device)
}

// FixerFunc adapts a function to Fixer.
type FixerFunc func(d *device.Device)

// Fix calls f.
func (f FixerFunc) Fix(d *device.Device) { f(d) }

// Pipeline applies fixers in order.
type Pipeline []Fixer

// Fix runs every fixer of the pipeline.
func (p Pipeline) Fix(d *device.Device) {
	for _, f := range p {
		if f != nil {
			f.Fix(d)
		}
	}
}

// DefaultFixers returns the standard normalization pipeline.
func DefaultFixers() Pipeline {
	return Pipeline{
		FixerFunc(FillCodes),
		FixerFunc(FillEmptyValues),
		FixerFunc(FillDPIDs),
	}
}

// FillCodes sets a descriptor's missing code from its table key.
func FillCodes(d *device.Device) {
	for _, code := range d.StatusRange.Keys() {
		if sr, _ := d.StatusRange.Get(code); sr != nil && sr.Code == "" {
			sr.Code = code
		}
	}
	for _, code := range d.Function.Keys() {
		if fn, _ := d.Function.Get(code); fn != nil && fn.Code == "" {
			fn.Code = code
		}
	}
}

// FillEmptyValues replaces empty value descriptors with an empty JSON object.
func FillEmptyValues(d *device.Device) {
	for _, code := range d.StatusRange.Keys() {
		if sr, _ := d.StatusRange.Get(code); sr != nil && sr.Values == "" {
			sr.Values = constants.EmptyDescriptor
		}
	}
	for _, code := range d.Function.Keys() {
		if fn, _ := d.Function.Get(code); fn != nil && fn.Values == "" {
			fn.Values = constants.EmptyDescriptor
		}
	}
}

// FillDPIDs sets a descriptor's missing dp id from the strategy entry that
// names its code.
func FillDPIDs(d *device.Device) {
	byCode := make(map[string]device.DPID)
	for _, id := range d.LocalStrategy.Keys() {
		s, _ := d.LocalStrategy.Get(id)
		if code := s.StatusCode(); code != "" {
			if _, seen := byCode[code]; !seen {
				byCode[code] = id
			}
		}
	}
	for _, code := range d.StatusRange.Keys() {
		if sr, _ := d.StatusRange.Get(code); sr != nil && sr.DPID == 0 {
			sr.DPID = byCode[code]
		}
	}
	for _, code := range d.Function.Keys() {
		if fn, _ := d.Function.Get(code); fn != nil && fn.DPID == 0 {
			fn.DPID = byCode[code]
		}
	}
}
