package smartmerge

import (
	"fmt"
	"reflect"
)

// Merge combines left and right and returns the merged value.
//
// Absence never overrides presence. Values of different kinds are not merged:
// left is returned and the mismatch is reported. Records and mappings are
// merged in place into left (mappings also receive every merged entry on the
// right, so both sides end up equal). Lists become the append-order union on
// both sides. Strings holding JSON are merged structurally and re-serialized.
// Differing leaves keep left and report the conflict.
//
// diags may be nil to suppress reporting. path labels diagnostics only.
func Merge(left, right Value, diags *Diagnostics, path Path) Value {
	if absent(left) {
		return right
	}
	if absent(right) {
		return left
	}
	if !sameKind(left, right) {
		diags.Addf("merging values of different types: %s and %s, keeping left (%s)", typeName(left), typeName(right), path)
		return left
	}

	switch l := left.(type) {
	case RecordValue:
		return mergeRecord(l, right.(RecordValue), diags, path)
	case MapValue:
		return mergeMap(l, right.(MapValue), diags, path)
	case *List:
		return mergeList(l, right.(*List))
	case Tuple:
		merged := mergeList(NewList(append([]Value(nil), l...)...), NewList(append([]Value(nil), right.(Tuple)...)...))
		return Tuple(merged.Items)
	case Set:
		for m := range right.(Set) {
			l[m] = struct{}{}
		}
		return l
	case String:
		return mergeString(l, right.(String), diags, path)
	case Scalar:
		r := right.(Scalar)
		if !reflect.DeepEqual(l.V, r.V) {
			diags.Addf("merging %s values that differ: |%s| <=> |%s|, keeping left (%s)", typeName(l), display(l), display(r), path)
		}
		return l
	default:
		panic(fmt.Sprintf("smartmerge: unknown value %T", left))
	}
}

// absent reports a missing value, including a typed nil list.
func absent(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *List:
		return x == nil
	}
	return false
}

// MergeAny merges two plain Go values, see FromAny and ToAny.
func MergeAny(left, right any, diags *Diagnostics, path Path) any {
	return ToAny(Merge(FromAny(left), FromAny(right), diags, path))
}

// sameKind reports whether two values can be merged structurally.
// Records must share a concrete type and scalars a dynamic Go type.
func sameKind(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case RecordValue:
		return reflect.TypeOf(x.R) == reflect.TypeOf(b.(RecordValue).R)
	case Scalar:
		return reflect.TypeOf(x.V) == reflect.TypeOf(b.(Scalar).V)
	}
	return true
}

func mergeRecord(left, right RecordValue, diags *Diagnostics, path Path) Value {
	for _, name := range left.R.FieldNames() {
		merged := Merge(left.R.Field(name), right.R.Field(name), diags, path.Field(name))
		left.R.SetField(name, merged)
	}
	return left
}

func mergeMap(left, right MapValue, diags *Diagnostics, path Path) Value {
	for _, key := range left.M.Keys() {
		lv, _ := left.M.Get(key)
		rv, ok := right.M.Get(key)
		if !ok {
			right.M.Set(key, lv)
			continue
		}
		merged := Merge(lv, rv, diags, path.Key(key))
		left.M.Set(key, merged)
		right.M.Set(key, merged)
	}
	for _, key := range right.M.Keys() {
		if _, ok := left.M.Get(key); ok {
			continue
		}
		rv, _ := right.M.Get(key)
		left.M.Set(key, rv)
	}
	return left
}

func mergeList(left, right *List) *List {
	for _, item := range left.Items {
		if !contains(right.Items, item) {
			right.Items = append(right.Items, item)
		}
	}
	for _, item := range right.Items {
		if !contains(left.Items, item) {
			left.Items = append(left.Items, item)
		}
	}
	return left
}

func contains(items []Value, v Value) bool {
	for _, item := range items {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// mergeString treats each side as serialized JSON when it parses as such.
func mergeString(left, right String, diags *Diagnostics, path Path) Value {
	lj, lok := ParseJSON(string(left))
	rj, rok := ParseJSON(string(right))

	switch {
	case lok && rok:
		merged := Merge(FromAny(lj), FromAny(rj), diags, path.JSON())
		return canonicalOr(ToAny(merged), string(left))
	case lok:
		return canonicalOr(lj, string(left))
	case rok:
		return canonicalOr(rj, string(right))
	}

	if left != right {
		diags.Addf("merging strings that differ: |%s| <=> |%s|, keeping left (%s)", left, right, path)
	}
	return left
}
