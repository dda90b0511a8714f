package reconciler

import (
	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/smartmerge"
)

// broken reports whether a value descriptor needs repair: it is not a JSON
// object, or it is an error wrapper left by an earlier repair.
func broken(values string) bool {
	obj, ok := smartmerge.ParseJSONObject(values)
	if !ok {
		return true
	}
	_, wrapped := obj[constants.ErrorValue1]
	return wrapped
}

// usable reports whether a descriptor may be copied over a broken one.
// Error wrappers are usable, so the reverse pass copies instead of
// wrapping twice.
func usable(values string) bool {
	_, ok := smartmerge.ParseJSONObject(values)
	return ok
}

// quarantine wraps two unparseable descriptors so both stay inspectable.
func quarantine(primary, secondary string) string {
	s, err := smartmerge.Canonical(map[string]string{
		constants.ErrorValue1: primary,
		constants.ErrorValue2: secondary,
	})
	if err != nil {
		return constants.EmptyDescriptor
	}
	return s
}

// descriptorSlot is a readable and writable value-descriptor string.
type descriptorSlot struct {
	get func() string
	set func(string)
}

// repair fixes primary's broken descriptors from secondary, see fixSlot.
func (r *reconciler) repair(rn *run, primary, secondary *device.Device, side provenance.Side) {
	for _, code := range primary.Function.Keys() {
		fn, _ := primary.Function.Get(code)
		if fn == nil {
			continue
		}
		var other *descriptorSlot
		if fn2, ok := secondary.Function.Get(code); ok && fn2 != nil {
			other = &descriptorSlot{get: func() string { return fn2.Values }, set: func(s string) { fn2.Values = s }}
		}
		r.fixSlot(rn, side, constants.TableFunction, code,
			descriptorSlot{get: func() string { return fn.Values }, set: func(s string) { fn.Values = s }}, other)
	}

	for _, code := range primary.StatusRange.Keys() {
		sr, _ := primary.StatusRange.Get(code)
		if sr == nil {
			continue
		}
		var other *descriptorSlot
		if sr2, ok := secondary.StatusRange.Get(code); ok && sr2 != nil {
			other = &descriptorSlot{get: func() string { return sr2.Values }, set: func(s string) { sr2.Values = s }}
		}
		r.fixSlot(rn, side, constants.TableStatusRange, code,
			descriptorSlot{get: func() string { return sr.Values }, set: func(s string) { sr.Values = s }}, other)
	}

	for _, id := range primary.LocalStrategy.Keys() {
		s, _ := primary.LocalStrategy.Get(id)
		slot, ok := valueDescSlot(s)
		if !ok {
			continue
		}
		var other *descriptorSlot
		if s2, ok := secondary.LocalStrategy.Get(id); ok {
			if slot2, ok := valueDescSlot(s2); ok {
				other = &slot2
			}
		}
		r.fixSlot(rn, side, constants.TableLocalStrategy, id.String(), slot, other)
	}
}

// valueDescSlot exposes config_item.valueDesc when it is a non-empty string.
func valueDescSlot(s device.Strategy) (descriptorSlot, bool) {
	item, ok := s.ConfigItem()
	if !ok {
		return descriptorSlot{}, false
	}
	desc, ok := item[constants.KeyValueDesc].(string)
	if !ok || desc == "" {
		return descriptorSlot{}, false
	}
	return descriptorSlot{
		get: func() string { v, _ := item[constants.KeyValueDesc].(string); return v },
		set: func(s string) { item[constants.KeyValueDesc] = s },
	}, true
}

// fixSlot repairs one descriptor. A broken descriptor is replaced by the
// other side's usable one; when both are unusable both sides receive the
// same error wrapper.
func (r *reconciler) fixSlot(rn *run, side provenance.Side, table, key string, slot descriptorSlot, other *descriptorSlot) {
	original := slot.get()
	if !broken(original) {
		return
	}
	if other != nil && other.get() == original {
		// Already repaired, or both sides hold the same table entry
		return
	}

	log := rn.logFor(provenance.StepRepair, table, key).Debug().Str("values", original)
	rep := Repair{Table: table, Key: key, Side: side, Original: original}
	rec := provenance.Provenance{
		Step:          provenance.StepRepair,
		Table:         table,
		Key:           key,
		Field:         constants.FieldValues,
		PreviousValue: original,
	}

	switch {
	case other == nil:
		rep.Outcome = RepairUnresolved
		rec.Winner = side
		rec.Reason = "no counterpart to repair from"
		log.Msg("Found invalid value descriptor, no counterpart to repair from")
	case usable(other.get()):
		fixed := other.get()
		slot.set(fixed)
		rep.Outcome = RepairCopied
		rec.Winner = opposite(side)
		rec.Value = fixed
		rec.Reason = "copied usable descriptor"
		rn.result.Metadata.Stats.Repaired++
		log.Msg("Found invalid value descriptor, copied counterpart")
	default:
		wrapped := quarantine(original, other.get())
		slot.set(wrapped)
		other.set(wrapped)
		rep.Outcome = RepairQuarantined
		rec.Winner = provenance.SideBoth
		rec.Value = wrapped
		rec.Reason = "both descriptors unparseable"
		rn.result.Metadata.Stats.Repaired++
		rn.result.Metadata.Stats.Quarantined++
		log.Msg("Found invalid value descriptor, fix unsuccessful, quarantined both sides")
	}

	rn.result.Repairs = append(rn.result.Repairs, rep)
	rn.track(rec)
}

func opposite(side provenance.Side) provenance.Side {
	if side == provenance.SideFirst {
		return provenance.SideSecond
	}
	return provenance.SideFirst
}
