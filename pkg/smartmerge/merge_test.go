package smartmerge_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/devmerge/pkg/smartmerge"
)

// pair is a minimal Record used to exercise field-by-field merging.
type pair struct {
	Name  string
	Score int
}

func (p *pair) FieldNames() []string { return []string{"name", "score"} }

func (p *pair) Field(name string) smartmerge.Value {
	switch name {
	case "name":
		if p.Name == "" {
			return nil
		}
		return smartmerge.String(p.Name)
	case "score":
		if p.Score == 0 {
			return nil
		}
		return smartmerge.Scalar{V: p.Score}
	}
	return nil
}

func (p *pair) SetField(name string, v smartmerge.Value) {
	switch x := v.(type) {
	case smartmerge.String:
		if name == "name" {
			p.Name = string(x)
		}
	case smartmerge.Scalar:
		if n, ok := x.V.(int); ok && name == "score" {
			p.Score = n
		}
	}
}

func TestMergePresenceOverAbsence(t *testing.T) {
	values := []smartmerge.Value{
		smartmerge.String("x"),
		smartmerge.Scalar{V: 3},
		smartmerge.MapValue{M: smartmerge.AnyMap{"a": 1}},
		smartmerge.NewList(smartmerge.String("a")),
		smartmerge.NewSet("a"),
	}
	for _, v := range values {
		diags := smartmerge.NewDiagnostics()
		assert.Equal(t, v, smartmerge.Merge(nil, v, diags, smartmerge.Root("x")))
		assert.Equal(t, v, smartmerge.Merge(v, nil, diags, smartmerge.Root("x")))
		assert.True(t, diags.Empty())
	}
	assert.Nil(t, smartmerge.Merge(nil, nil, nil, smartmerge.Root("x")))
}

func TestMergeNilListIsAbsent(t *testing.T) {
	var missing *smartmerge.List
	list := smartmerge.NewList(smartmerge.String("a"))

	assert.Same(t, list, smartmerge.Merge(missing, list, nil, smartmerge.Root("x")))
	assert.Same(t, list, smartmerge.Merge(list, missing, nil, smartmerge.Root("x")))
}

func TestMergeKindMismatchKeepsLeft(t *testing.T) {
	diags := smartmerge.NewDiagnostics()
	left := smartmerge.MapValue{M: smartmerge.AnyMap{"a": 1}}

	got := smartmerge.Merge(left, smartmerge.Scalar{V: 1}, diags, smartmerge.Root("function").Key("x"))

	assert.Equal(t, left, got)
	require.Equal(t, 1, diags.Len())
	assert.Contains(t, diags.Messages()[0], "function[x]")
	assert.Contains(t, diags.Messages()[0], "different types")
}

func TestMergeScalarsOfDifferentGoTypesMismatch(t *testing.T) {
	diags := smartmerge.NewDiagnostics()
	got := smartmerge.Merge(smartmerge.Scalar{V: 1}, smartmerge.Scalar{V: 1.0}, diags, smartmerge.Root("v"))
	assert.Equal(t, smartmerge.Scalar{V: 1}, got)
	require.Equal(t, 1, diags.Len())
	assert.Contains(t, diags.Messages()[0], "int and float64")
}

func TestMergeScalarConflict(t *testing.T) {
	status := func() (smartmerge.AnyMap, smartmerge.AnyMap) {
		return smartmerge.AnyMap{"temp": 21}, smartmerge.AnyMap{"temp": 22}
	}

	t.Run("suppressed", func(t *testing.T) {
		l, r := status()
		smartmerge.Merge(smartmerge.MapValue{M: l}, smartmerge.MapValue{M: r}, nil, smartmerge.Root("status"))
		assert.Equal(t, 21, l["temp"])
		assert.Equal(t, 21, r["temp"])
	})

	t.Run("reported", func(t *testing.T) {
		l, r := status()
		diags := smartmerge.NewDiagnostics()
		smartmerge.Merge(smartmerge.MapValue{M: l}, smartmerge.MapValue{M: r}, diags, smartmerge.Root("status"))
		assert.Equal(t, 21, l["temp"])
		require.Equal(t, 1, diags.Len())
		assert.Contains(t, diags.Messages()[0], "status[temp]")
		assert.Contains(t, diags.Messages()[0], "|21| <=> |22|")
	})
}

func TestMergeMapUnion(t *testing.T) {
	left := smartmerge.AnyMap{
		"a":      "1",
		"nested": map[string]any{"x": true},
	}
	right := smartmerge.AnyMap{
		"b":      "2",
		"nested": map[string]any{"y": false},
	}
	diags := smartmerge.NewDiagnostics()

	got := smartmerge.Merge(smartmerge.MapValue{M: left}, smartmerge.MapValue{M: right}, diags, smartmerge.Root("m"))

	want := map[string]any{
		"a":      "1",
		"b":      "2",
		"nested": map[string]any{"x": true, "y": false},
	}
	assert.Equal(t, smartmerge.MapValue{M: left}, got)
	if diff := cmp.Diff(want, map[string]any(left)); diff != "" {
		t.Errorf("left mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, map[string]any(right)); diff != "" {
		t.Errorf("right mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, diags.Empty())
}

func TestMergeListSymmetricUnion(t *testing.T) {
	left := smartmerge.NewList(smartmerge.String("a"), smartmerge.String("b"))
	right := smartmerge.NewList(smartmerge.String("b"), smartmerge.String("c"))

	got := smartmerge.Merge(left, right, nil, smartmerge.Root("l"))

	assert.Same(t, left, got)
	assert.Equal(t, []smartmerge.Value{smartmerge.String("a"), smartmerge.String("b"), smartmerge.String("c")}, left.Items)
	assert.Equal(t, []smartmerge.Value{smartmerge.String("b"), smartmerge.String("c"), smartmerge.String("a")}, right.Items)
}

func TestMergeTupleLeavesInputsUntouched(t *testing.T) {
	left := smartmerge.Tuple{smartmerge.Scalar{V: 1}}
	right := smartmerge.Tuple{smartmerge.Scalar{V: 2}}

	got := smartmerge.Merge(left, right, nil, smartmerge.Root("t"))

	assert.Equal(t, smartmerge.Tuple{smartmerge.Scalar{V: 1}, smartmerge.Scalar{V: 2}}, got)
	assert.Len(t, left, 1)
	assert.Len(t, right, 1)
}

func TestMergeSetUnionIntoLeft(t *testing.T) {
	left := smartmerge.NewSet("a")
	right := smartmerge.NewSet("b")

	got := smartmerge.Merge(left, right, nil, smartmerge.Root("s"))

	assert.Equal(t, smartmerge.NewSet("a", "b"), got)
	assert.Equal(t, smartmerge.NewSet("a", "b"), left)
}

func TestMergeStrings(t *testing.T) {
	tests := []struct {
		name      string
		left      string
		right     string
		want      string
		wantDiags int
	}{
		{"equal plain", "bool", "bool", "bool", 0},
		{"differing plain keeps left", "bool", "enum", "bool", 1},
		{"both json merged", `{"range":["a"]}`, `{"range":["b"],"unit":"s"}`, `{"range":["a","b"],"unit":"s"}`, 0},
		{"only left json", `{ "min": 0 }`, "garbage", `{"min":0}`, 0},
		{"only right json", "garbage", `{"max":10}`, `{"max":10}`, 0},
		{"json numbers preserved", `{"scale":1.50}`, `{"scale":1.50}`, `{"scale":1.50}`, 0},
		{"json conflict", `{"max":10}`, `{"max":20}`, `{"max":10}`, 1},
		{"null is not json", "null", "other", "null", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := smartmerge.NewDiagnostics()
			got := smartmerge.Merge(smartmerge.String(tt.left), smartmerge.String(tt.right), diags, smartmerge.Root("values"))
			assert.Equal(t, smartmerge.String(tt.want), got)
			assert.Equal(t, tt.wantDiags, diags.Len(), diags.Messages())
		})
	}
}

func TestMergeJSONConflictPathMarksBoundary(t *testing.T) {
	diags := smartmerge.NewDiagnostics()
	smartmerge.Merge(smartmerge.String(`{"max":10}`), smartmerge.String(`{"max":20}`), diags,
		smartmerge.Root("function").Key("bright").Field("values"))

	require.Equal(t, 1, diags.Len())
	assert.Contains(t, diags.Messages()[0], "function[bright].values.@JSON@[max]")
}

func TestMergeRecordFieldByField(t *testing.T) {
	left := &pair{Name: "dimmer"}
	right := &pair{Name: "dimmer", Score: 7}

	got := smartmerge.Merge(smartmerge.RecordValue{R: left}, smartmerge.RecordValue{R: right}, nil, smartmerge.Root("r"))

	assert.Equal(t, smartmerge.RecordValue{R: left}, got)
	assert.Equal(t, &pair{Name: "dimmer", Score: 7}, left)
}

func TestMergeRecordsInMapAreShared(t *testing.T) {
	shared := &pair{Name: "a"}
	left := smartmerge.AnyMap{"k": smartmerge.RecordValue{R: shared}}
	right := smartmerge.AnyMap{"k": smartmerge.RecordValue{R: &pair{Name: "a", Score: 2}}}

	smartmerge.Merge(smartmerge.MapValue{M: left}, smartmerge.MapValue{M: right}, nil, smartmerge.Root("m"))

	assert.Same(t, shared, right["k"].(*pair))
	assert.Equal(t, 2, shared.Score)
}

func TestMergeIdempotent(t *testing.T) {
	raw := `{"a":{"b":[1,2,{"c":"d"}]},"e":"f","g":1.5}`
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	diags := smartmerge.NewDiagnostics()
	got := smartmerge.MergeAny(doc, doc, diags, smartmerge.Root("doc"))

	var want map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &want))
	assert.Equal(t, want, got)
	assert.True(t, diags.Empty(), diags.Messages())
}

func TestPathString(t *testing.T) {
	p := smartmerge.Root("local_strategy").Key("101").Field("config_item").JSON().Key("range")
	assert.Equal(t, "local_strategy[101].config_item.@JSON@[range]", p.String())

	base := smartmerge.Root("a")
	first := base.Key("x")
	second := base.Key("y")
	assert.Equal(t, "a[x]", first.String())
	assert.Equal(t, "a[y]", second.String())
	assert.Len(t, second.Segments(), 1)
}

func TestParseJSON(t *testing.T) {
	_, ok := smartmerge.ParseJSON(`{"a":1} trailing`)
	assert.False(t, ok)

	v, ok := smartmerge.ParseJSON(`42`)
	require.True(t, ok)
	assert.Equal(t, json.Number("42"), v)

	m, ok := smartmerge.ParseJSONObject(`{"b":2,"a":"<x>"}`)
	require.True(t, ok)
	s, err := smartmerge.Canonical(m)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x>","b":2}`, s)

	_, ok = smartmerge.ParseJSONObject(`[1]`)
	assert.False(t, ok)
}

func TestNilDiagnosticsAreSafe(t *testing.T) {
	var d *smartmerge.Diagnostics
	d.Addf("ignored %d", 1)
	assert.Nil(t, d.Messages())
	assert.True(t, d.Empty())
}
