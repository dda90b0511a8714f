// Package smartmerge implements a generic, type-dispatched deep merge over
// heterogeneous nested values.
//
// Every mergeable value is one of a closed set of variants (see Kind). Merge
// combines two values structurally, mutating the left side in place where the
// variant allows it, and records irreconcilable conflicts as diagnostics
// instead of failing. A nil Value means "absent".
package smartmerge

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
)

// Kind identifies a Value variant.
type Kind int

// Value kinds.
const (
	KindRecord Kind = iota + 1
	KindMap
	KindList
	KindTuple
	KindSet
	KindString
	KindScalar
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindString:
		return "string"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a mergeable value. The set of implementations is closed.
type Value interface {
	Kind() Kind
	sealed()
}

// Record is a fixed-shape structure merged field by field.
// Field returns nil for an unset field; SetField with nil leaves the field unchanged.
type Record interface {
	FieldNames() []string
	Field(name string) Value
	SetField(name string, v Value)
}

// Mapping is a string-keyed table merged as a union of keys.
type Mapping interface {
	Keys() []string
	Get(key string) (Value, bool)
	Set(key string, v Value)
}

// RecordValue wraps a Record.
type RecordValue struct{ R Record }

// MapValue wraps a Mapping.
type MapValue struct{ M Mapping }

// List is an ordered sequence merged as an append-order set union.
type List struct{ Items []Value }

// Tuple is a fixed-arity sequence. It is merged like a List but never mutated.
type Tuple []Value

// Set is an unordered set of comparable members.
type Set map[any]struct{}

// String is a text value that may hold serialized JSON.
type String string

// Scalar is any other leaf value (numbers, booleans, opaque values).
type Scalar struct{ V any }

func (RecordValue) Kind() Kind { return KindRecord }
func (MapValue) Kind() Kind    { return KindMap }
func (*List) Kind() Kind       { return KindList }
func (Tuple) Kind() Kind       { return KindTuple }
func (Set) Kind() Kind         { return KindSet }
func (String) Kind() Kind      { return KindString }
func (Scalar) Kind() Kind      { return KindScalar }

func (RecordValue) sealed() {}
func (MapValue) sealed()    {}
func (*List) sealed()       {}
func (Tuple) sealed()       {}
func (Set) sealed()         {}
func (String) sealed()      {}
func (Scalar) sealed()      {}

// NewList returns a List holding items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// NewSet returns a Set holding members.
func NewSet(members ...any) Set {
	s := make(Set, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// AnyMap adapts a map[string]any to Mapping. Nested values are converted
// with FromAny on read and ToAny on write, so nested maps are shared, not copied.
type AnyMap map[string]any

// Keys returns the map keys in sorted order.
func (m AnyMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the value stored under key.
func (m AnyMap) Get(key string) (Value, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return FromAny(v), true
}

// Set stores v under key.
func (m AnyMap) Set(key string, v Value) {
	m[key] = ToAny(v)
}

// FromAny converts a plain Go value into a Value.
// Maps of type map[string]any are wrapped, not copied.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case Value:
		return x
	case Record:
		return RecordValue{R: x}
	case Mapping:
		return MapValue{M: x}
	case string:
		return String(x)
	case map[string]any:
		return MapValue{M: AnyMap(x)}
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return &List{Items: items}
	case map[any]struct{}:
		return Set(x)
	default:
		return Scalar{V: v}
	}
}

// ToAny converts a Value back into a plain Go value.
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil:
		return nil
	case RecordValue:
		return x.R
	case MapValue:
		if m, ok := x.M.(AnyMap); ok {
			return map[string]any(m)
		}
		return x.M
	case *List:
		if x == nil {
			return nil
		}
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = ToAny(item)
		}
		return out
	case Tuple:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToAny(item)
		}
		return out
	case Set:
		return map[any]struct{}(x)
	case String:
		return string(x)
	case Scalar:
		return x.V
	default:
		panic(fmt.Sprintf("smartmerge: unknown value %T", v))
	}
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return reflect.DeepEqual(ToAny(a), ToAny(b))
}

// typeName describes a value for diagnostics.
func typeName(v Value) string {
	switch x := v.(type) {
	case RecordValue:
		return fmt.Sprintf("%T", x.R)
	case Scalar:
		return fmt.Sprintf("%T", x.V)
	default:
		return v.Kind().String()
	}
}

// display renders a leaf value for diagnostics.
func display(v Value) string {
	switch x := v.(type) {
	case String:
		return string(x)
	case Scalar:
		if n, ok := x.V.(json.Number); ok {
			return n.String()
		}
		return fmt.Sprint(x.V)
	default:
		return fmt.Sprint(ToAny(v))
	}
}
