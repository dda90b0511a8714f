package reconciler

import (
	"reflect"

	"github.com/agentstation/devmerge/pkg/authority"
	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/smartmerge"
)

// evidence returns the runtime value of code, preferring the first device.
func (rn *run) evidence(code string) any {
	if code == "" {
		return nil
	}
	if v, ok := rn.first.StatusValue(code); ok {
		return v
	}
	if v, ok := rn.second.StatusValue(code); ok {
		return v
	}
	return nil
}

func winner(p authority.Preference) provenance.Side {
	if p == authority.PreferFirst {
		return provenance.SideFirst
	}
	return provenance.SideSecond
}

// alignTypes lets the resolver pick each shared datapoint's type. The
// winning side's type and value descriptor are copied together.
func (r *reconciler) alignTypes(rn *run) {
	resolver := r.options.resolver

	for _, code := range rn.first.StatusRange.Keys() {
		a, _ := rn.first.StatusRange.Get(code)
		b, ok := rn.second.StatusRange.Get(code)
		if !ok || a == nil || b == nil {
			continue
		}
		pref := resolver.MostPlausible(
			map[string]any{constants.FieldType: a.Type},
			map[string]any{constants.FieldType: b.Type},
			constants.FieldType, rn.evidence(code))
		switch pref {
		case authority.PreferFirst:
			b.Type, b.Values = a.Type, a.Values
		case authority.PreferSecond:
			a.Type, a.Values = b.Type, b.Values
		default:
			continue
		}
		rn.alignedType(constants.TableStatusRange, code, pref)
	}

	for _, code := range rn.first.Function.Keys() {
		a, _ := rn.first.Function.Get(code)
		b, ok := rn.second.Function.Get(code)
		if !ok || a == nil || b == nil {
			continue
		}
		pref := resolver.MostPlausible(
			map[string]any{constants.FieldType: a.Type},
			map[string]any{constants.FieldType: b.Type},
			constants.FieldType, rn.evidence(code))
		switch pref {
		case authority.PreferFirst:
			b.Type, b.Values = a.Type, a.Values
		case authority.PreferSecond:
			a.Type, a.Values = b.Type, b.Values
		default:
			continue
		}
		rn.alignedType(constants.TableFunction, code, pref)
	}

	for _, id := range rn.first.LocalStrategy.Keys() {
		s1, _ := rn.first.LocalStrategy.Get(id)
		s2, ok := rn.second.LocalStrategy.Get(id)
		if !ok {
			continue
		}
		item1, ok1 := s1.ConfigItem()
		item2, ok2 := s2.ConfigItem()
		if !ok1 || !ok2 {
			continue
		}
		if _, has := item1[constants.KeyValueType]; !has {
			continue
		}
		if _, has := item2[constants.KeyValueType]; !has {
			continue
		}

		ev := rn.evidence(s1.StatusCode())
		if ev == nil {
			ev = rn.evidence(s2.StatusCode())
		}
		pref := resolver.MostPlausible(item1, item2, constants.KeyValueType, ev)
		switch pref {
		case authority.PreferFirst:
			copyKeys(item1, item2, constants.KeyValueType, constants.KeyValueDesc)
		case authority.PreferSecond:
			copyKeys(item2, item1, constants.KeyValueType, constants.KeyValueDesc)
		default:
			continue
		}
		rn.alignedType(constants.TableLocalStrategy, id.String(), pref)
	}
}

func (rn *run) alignedType(table, key string, pref authority.Preference) {
	rn.result.Metadata.Stats.TypesAligned++
	rn.track(provenance.Provenance{
		Step:   provenance.StepType,
		Table:  table,
		Key:    key,
		Field:  constants.FieldType,
		Winner: winner(pref),
		Reason: "more plausible type",
	})
}

// copyKeys copies keys from src to dst. A key absent from src is removed from dst.
func copyKeys(src, dst map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := src[k]; ok {
			dst[k] = v
		} else {
			delete(dst, k)
		}
	}
}

// alignTransport picks, per shared datapoint, which side's transport
// metadata to adopt: the side not using OpenAPI, else the side not using
// property updates. When both sides use OpenAPI property updates nothing
// is copied.
func (r *reconciler) alignTransport(rn *run) {
	for _, id := range rn.first.LocalStrategy.Keys() {
		s1, _ := rn.first.LocalStrategy.Get(id)
		s2, ok := rn.second.LocalStrategy.Get(id)
		if !ok || s1 == nil || s2 == nil {
			continue
		}

		var pref authority.Preference
		var reason string
		switch {
		case !s1.UseOpenAPI():
			pref, reason = authority.PreferFirst, "first does not use OpenAPI"
		case !s2.UseOpenAPI():
			pref, reason = authority.PreferSecond, "second does not use OpenAPI"
		case !s1.PropertyUpdate():
			pref, reason = authority.PreferFirst, "first does not use property updates"
		case !s2.PropertyUpdate():
			pref, reason = authority.PreferSecond, "second does not use property updates"
		default:
			continue
		}

		fields := []string{constants.KeyUseOpenAPI, constants.KeyPropertyUpdate, constants.KeyStatusCode}
		if pref == authority.PreferFirst {
			copyKeys(s1, s2, fields...)
		} else {
			copyKeys(s2, s1, fields...)
		}

		rn.result.Metadata.Stats.TransportsAligned++
		rn.track(provenance.Provenance{
			Step:   provenance.StepTransport,
			Table:  constants.TableLocalStrategy,
			Key:    id.String(),
			Winner: winner(pref),
			Reason: reason,
		})
	}
}

// alignValueConverters prefers a named value converter over the default
// one. When both are named and differ, the first device wins.
func (r *reconciler) alignValueConverters(rn *run) {
	for _, id := range rn.first.LocalStrategy.Keys() {
		s1, _ := rn.first.LocalStrategy.Get(id)
		s2, ok := rn.second.LocalStrategy.Get(id)
		if !ok || s1 == nil || s2 == nil {
			continue
		}

		v1, _ := s1.ValueConvert()
		v2, _ := s2.ValueConvert()
		if reflect.DeepEqual(v1, v2) {
			continue
		}

		pref := authority.PreferFirst
		if v1 == nil || v1 == constants.ValueConvertDefault {
			pref = authority.PreferSecond
			copyKeys(s2, s1, constants.KeyValueConvert)
		} else {
			copyKeys(s1, s2, constants.KeyValueConvert)
		}

		rn.result.Metadata.Stats.ConvertersAligned++
		rn.track(provenance.Provenance{
			Step:   provenance.StepValueConvert,
			Table:  constants.TableLocalStrategy,
			Key:    id.String(),
			Field:  constants.KeyValueConvert,
			Winner: winner(pref),
		})
	}
}

// alignValueDescriptors reconciles differing value descriptors of shared
// datapoints through the aligner and writes the same result to both sides.
func (r *reconciler) alignValueDescriptors(rn *run) {
	for _, code := range rn.first.StatusRange.Keys() {
		a, _ := rn.first.StatusRange.Get(code)
		b, ok := rn.second.StatusRange.Get(code)
		if !ok || a == nil || b == nil {
			continue
		}
		if v1, v2, ok := r.alignDescriptor(rn, constants.TableStatusRange, code, a.Values, b.Values); ok {
			a.Values, b.Values = v1, v2
		}
	}

	for _, code := range rn.first.Function.Keys() {
		a, _ := rn.first.Function.Get(code)
		b, ok := rn.second.Function.Get(code)
		if !ok || a == nil || b == nil {
			continue
		}
		if v1, v2, ok := r.alignDescriptor(rn, constants.TableFunction, code, a.Values, b.Values); ok {
			a.Values, b.Values = v1, v2
		}
	}

	for _, id := range rn.first.LocalStrategy.Keys() {
		s1, _ := rn.first.LocalStrategy.Get(id)
		s2, ok := rn.second.LocalStrategy.Get(id)
		if !ok {
			continue
		}
		item1, ok1 := s1.ConfigItem()
		item2, ok2 := s2.ConfigItem()
		if !ok1 || !ok2 {
			continue
		}
		d1, ok1 := item1[constants.KeyValueDesc].(string)
		d2, ok2 := item2[constants.KeyValueDesc].(string)
		if !ok1 || !ok2 {
			continue
		}
		if v1, v2, ok := r.alignDescriptor(rn, constants.TableLocalStrategy, id.String(), d1, d2); ok {
			item1[constants.KeyValueDesc] = v1
			item2[constants.KeyValueDesc] = v2
		}
	}
}

// alignDescriptor returns the aligned, canonical forms of two descriptors.
// ok is false when they are already equal or cannot be parsed.
func (r *reconciler) alignDescriptor(rn *run, table, key, first, second string) (string, string, bool) {
	if first == second {
		return "", "", false
	}
	v1, ok1 := smartmerge.ParseJSONObject(first)
	v2, ok2 := smartmerge.ParseJSONObject(second)
	if !ok1 || !ok2 {
		rn.logFor(provenance.StepValueDesc, table, key).Debug().
			Msg("Skipping value descriptor alignment, descriptor is not a JSON object")
		return "", "", false
	}

	for field, v := range r.options.aligner.Align(v1, v2, nil) {
		v1[field] = v
		v2[field] = v
	}

	out1, err1 := smartmerge.Canonical(v1)
	out2, err2 := smartmerge.Canonical(v2)
	if err1 != nil || err2 != nil {
		return "", "", false
	}

	rn.result.Metadata.Stats.ValueDescsAligned++
	rn.track(provenance.Provenance{
		Step:          provenance.StepValueDesc,
		Table:         table,
		Key:           key,
		Field:         constants.FieldValues,
		Winner:        provenance.SideBoth,
		Value:         out1,
		PreviousValue: first,
	})
	return out1, out2, true
}
