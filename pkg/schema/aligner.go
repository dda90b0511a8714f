package schema

import (
	"encoding/json"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Aligner computes the reconciled form of two value descriptors. It returns
// only the fields that need to change; the caller applies every returned
// field to both descriptors. ctx is opaque and may be nil.
type Aligner interface {
	Align(first, second map[string]any, ctx any) map[string]any
}

// AlignerFunc adapts a function to Aligner.
type AlignerFunc func(first, second map[string]any, ctx any) map[string]any

// Align calls f.
func (f AlignerFunc) Align(first, second map[string]any, ctx any) map[string]any {
	return f(first, second, ctx)
}

// widening rules for well-known descriptor fields.
var rules = map[string]func(a, b any) any{
	"min":    lower,
	"max":    higher,
	"scale":  higher,
	"maxlen": higher,
	"step":   lower,
	"range":  union,
	"unit":   nonBlank,
}

type widening struct{}

// NewAligner returns the default aligner: numeric bounds are widened, enum
// ranges unioned, blank units filled, and any other disagreement resolved
// in favour of the first descriptor. Fields present on one side only are
// copied to the other.
func NewAligner() Aligner {
	return widening{}
}

func (widening) Align(first, second map[string]any, _ any) map[string]any {
	out := make(map[string]any)

	keys := make([]string, 0, len(first)+len(second))
	for k := range first {
		keys = append(keys, k)
	}
	for k := range second {
		if _, ok := first[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		a, inA := first[k]
		b, inB := second[k]
		switch {
		case !inA:
			out[k] = b
		case !inB:
			out[k] = a
		case reflect.DeepEqual(a, b):
		default:
			resolve, ok := rules[k]
			if !ok {
				out[k] = a
				continue
			}
			out[k] = resolve(a, b)
		}
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func lower(a, b any) any {
	x, okA := number(a)
	y, okB := number(b)
	if okA && okB && y < x {
		return b
	}
	if !okA && okB {
		return b
	}
	return a
}

func higher(a, b any) any {
	x, okA := number(a)
	y, okB := number(b)
	if okA && okB && y > x {
		return b
	}
	if !okA && okB {
		return b
	}
	return a
}

func union(a, b any) any {
	la, okA := a.([]any)
	lb, okB := b.([]any)
	if !okA || !okB {
		return a
	}
	out := slices.Clone(la)
	for _, item := range lb {
		if !slices.ContainsFunc(out, func(x any) bool { return reflect.DeepEqual(x, item) }) {
			out = append(out, item)
		}
	}
	return out
}

func nonBlank(a, b any) any {
	if s, ok := a.(string); ok && strings.TrimSpace(s) == "" {
		return b
	}
	return a
}
