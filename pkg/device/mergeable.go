package device

import (
	"fmt"

	"github.com/agentstation/devmerge/pkg/smartmerge"
)

// tableView exposes a Table as a smartmerge.Mapping.
type tableView[K Key, V any] struct {
	table  *Table[K, V]
	parse  func(string) (K, error)
	wrap   func(V) smartmerge.Value
	unwrap func(smartmerge.Value) (V, bool)
}

func (v tableView[K, V]) Keys() []string {
	keys := v.table.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprint(k)
	}
	return out
}

func (v tableView[K, V]) Get(key string) (smartmerge.Value, bool) {
	k, err := v.parse(key)
	if err != nil {
		return nil, false
	}
	entry, ok := v.table.Get(k)
	if !ok {
		return nil, false
	}
	return v.wrap(entry), true
}

func (v tableView[K, V]) Set(key string, val smartmerge.Value) {
	k, err := v.parse(key)
	if err != nil {
		return
	}
	if entry, ok := v.unwrap(val); ok {
		v.table.Set(k, entry)
	}
}

func parseCode(s string) (string, error) { return s, nil }

// StatusRangeView exposes a status_range table to the merge engine.
func StatusRangeView(t *Table[string, *StatusRange]) smartmerge.Value {
	return smartmerge.MapValue{M: tableView[string, *StatusRange]{
		table: t,
		parse: parseCode,
		wrap: func(sr *StatusRange) smartmerge.Value {
			if sr == nil {
				return nil
			}
			return smartmerge.RecordValue{R: sr}
		},
		unwrap: func(v smartmerge.Value) (*StatusRange, bool) {
			rv, ok := v.(smartmerge.RecordValue)
			if !ok {
				return nil, false
			}
			sr, ok := rv.R.(*StatusRange)
			return sr, ok
		},
	}}
}

// FunctionView exposes a function table to the merge engine.
func FunctionView(t *Table[string, *Function]) smartmerge.Value {
	return smartmerge.MapValue{M: tableView[string, *Function]{
		table: t,
		parse: parseCode,
		wrap: func(fn *Function) smartmerge.Value {
			if fn == nil {
				return nil
			}
			return smartmerge.RecordValue{R: fn}
		},
		unwrap: func(v smartmerge.Value) (*Function, bool) {
			rv, ok := v.(smartmerge.RecordValue)
			if !ok {
				return nil, false
			}
			fn, ok := rv.R.(*Function)
			return fn, ok
		},
	}}
}

// StatusView exposes a status table to the merge engine.
func StatusView(t *Table[string, any]) smartmerge.Value {
	return smartmerge.MapValue{M: tableView[string, any]{
		table: t,
		parse: parseCode,
		wrap:  smartmerge.FromAny,
		unwrap: func(v smartmerge.Value) (any, bool) {
			return smartmerge.ToAny(v), true
		},
	}}
}

// LocalStrategyView exposes a local_strategy table to the merge engine.
// Strategy entries are merged in place.
func LocalStrategyView(t *Table[DPID, Strategy]) smartmerge.Value {
	return smartmerge.MapValue{M: tableView[DPID, Strategy]{
		table: t,
		parse: ParseDPID,
		wrap: func(s Strategy) smartmerge.Value {
			if s == nil {
				return nil
			}
			return smartmerge.MapValue{M: smartmerge.AnyMap(s)}
		},
		unwrap: func(v smartmerge.Value) (Strategy, bool) {
			mv, ok := v.(smartmerge.MapValue)
			if !ok {
				return nil, false
			}
			m, ok := mv.M.(smartmerge.AnyMap)
			return Strategy(m), ok
		},
	}}
}
