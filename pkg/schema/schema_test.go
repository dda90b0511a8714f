package schema_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/schema"
)

func TestDefaultFixers(t *testing.T) {
	d := device.New("dev")
	d.StatusRange.Set("temp_current", &device.StatusRange{Type: "Integer"})
	d.Function.Set("switch", &device.Function{Code: "switch", Type: "Boolean", DPID: 1})
	d.LocalStrategy.Set(3, device.Strategy{"status_code": "temp_current"})

	schema.DefaultFixers().Fix(d)

	sr, _ := d.StatusRange.Get("temp_current")
	assert.Equal(t, &device.StatusRange{Code: "temp_current", Type: "Integer", Values: "{}", DPID: 3}, sr)
	fn, _ := d.Function.Get("switch")
	assert.Equal(t, &device.Function{Code: "switch", Type: "Boolean", Values: "{}", DPID: 1}, fn)
}

func TestPipelineOrderAndNilEntries(t *testing.T) {
	var order []string
	p := schema.Pipeline{
		schema.FixerFunc(func(*device.Device) { order = append(order, "a") }),
		nil,
		schema.FixerFunc(func(*device.Device) { order = append(order, "b") }),
	}
	p.Fix(device.New("dev"))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestAlignerWidens(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
		want   map[string]any
	}{
		{
			name:   "max widened",
			first:  `{"min":0,"max":10}`,
			second: `{"min":0,"max":20}`,
			want:   map[string]any{"max": json.Number("20")},
		},
		{
			name:   "min lowered and scale raised",
			first:  `{"min":5,"scale":0}`,
			second: `{"min":-5,"scale":1}`,
			want:   map[string]any{"min": json.Number("-5"), "scale": json.Number("1")},
		},
		{
			name:   "enum range union",
			first:  `{"range":["low","high"]}`,
			second: `{"range":["high","auto"]}`,
			want:   map[string]any{"range": []any{"low", "high", "auto"}},
		},
		{
			name:   "blank unit filled",
			first:  `{"unit":""}`,
			second: `{"unit":"℃"}`,
			want:   map[string]any{"unit": "℃"},
		},
		{
			name:   "one sided fields copied",
			first:  `{"step":1}`,
			second: `{"maxlen":255}`,
			want:   map[string]any{"step": json.Number("1"), "maxlen": json.Number("255")},
		},
		{
			name:   "unknown field keeps first",
			first:  `{"label":"a"}`,
			second: `{"label":"b"}`,
			want:   map[string]any{"label": "a"},
		},
		{
			name:   "identical",
			first:  `{"min":0}`,
			second: `{"min":0}`,
			want:   map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schema.NewAligner().Align(decode(t, tt.first), decode(t, tt.second), nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return m
}
