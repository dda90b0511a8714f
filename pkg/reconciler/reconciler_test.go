package reconciler_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/devmerge/pkg/authority"
	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/logging"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/reconciler"
	"github.com/agentstation/devmerge/pkg/schema"
)

// sharingDevice and cloudDevice describe the same dimmer from two accounts.
func sharingDevice() *device.Device {
	d := device.New("bf8a7c3e0d")
	d.Name = "Dimmer"
	d.StatusRange.Set("bright_value", &device.StatusRange{Code: "bright_value", Type: "Integer", Values: `{"max":10,"min":0}`, DPID: 2})
	d.Function.Set("switch_led", &device.Function{Code: "switch_led", Type: "Boolean", Values: "{}", DPID: 1})
	d.Status.Set("bright_value", 5.0)
	d.Status.Set("switch_led", true)
	d.LocalStrategy.Set(1, device.Strategy{
		"status_code":     "switch_led",
		"use_open_api":    false,
		"property_update": false,
		"value_convert":   "default",
		"config_item":     map[string]any{"valueType": "Boolean", "valueDesc": "{}"},
	})
	return d
}

func cloudDevice() *device.Device {
	d := device.New("bf8a7c3e0d")
	d.StatusRange.Set("bright_value", &device.StatusRange{Code: "bright_value", Type: "Integer", Values: `{"max":20,"min":0}`, DPID: 2})
	d.StatusRange.Set("temp_value", &device.StatusRange{Code: "temp_value", Type: "Integer", Values: `{"max":1000,"min":0}`, DPID: 3})
	d.Function.Set("switch_led", &device.Function{Code: "switch_led", Type: "Boolean", Values: "{}", DPID: 1})
	d.Status.Set("temp_value", 300.0)
	d.LocalStrategy.Set(1, device.Strategy{
		"status_code":     "switch_led_cloud",
		"use_open_api":    true,
		"property_update": true,
		"value_convert":   "scale",
		"config_item":     map[string]any{"valueType": "Boolean", "valueDesc": "{}"},
	})
	d.DataModel = `{"services":[]}`
	return d
}

func newReconciler(t *testing.T, opts ...reconciler.Option) reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New(opts...)
	require.NoError(t, err)
	return r
}

func TestDevicesAliasesTables(t *testing.T) {
	d1, d2 := sharingDevice(), cloudDevice()

	_, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	assert.True(t, d1.SharesTablesWith(d2))
	assert.Same(t, d1.StatusRange, d2.StatusRange)

	sr, _ := d1.StatusRange.Get("bright_value")
	sr.Type = "Enum"
	seen, _ := d2.StatusRange.Get("bright_value")
	assert.Equal(t, "Enum", seen.Type)

	d1.Status.Set("new_key", 1.0)
	assert.True(t, d2.Status.Has("new_key"))
}

func TestDevicesUnionCompleteness(t *testing.T) {
	d1, d2 := sharingDevice(), cloudDevice()

	_, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	assert.Equal(t, []string{"bright_value", "temp_value"}, d1.StatusRange.Keys())
	assert.Equal(t, []string{"bright_value", "switch_led", "temp_value"}, d1.Status.Keys())
	assert.Equal(t, []string{"switch_led"}, d1.Function.Keys())
}

func TestDevicesValueDescriptorWidening(t *testing.T) {
	d1, d2 := sharingDevice(), cloudDevice()
	before, _ := d2.StatusRange.Get("bright_value")

	_, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	merged, _ := d1.StatusRange.Get("bright_value")
	assert.Equal(t, `{"max":20,"min":0}`, merged.Values)
	assert.Equal(t, `{"max":20,"min":0}`, before.Values)
}

func TestDevicesRepairQuarantine(t *testing.T) {
	d1, d2 := device.New("x"), device.New("x")
	d1.Function.Set("x", &device.Function{Code: "x", Type: "String", Values: "not json"})
	d2.Function.Set("x", &device.Function{Code: "x", Type: "String", Values: "also not json"})
	orig2, _ := d2.Function.Get("x")

	res, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	want := `{"ErrorValue1":"not json","ErrorValue2":"also not json"}`
	fn, _ := d1.Function.Get("x")
	assert.Equal(t, want, fn.Values)
	assert.Equal(t, want, orig2.Values)
	require.NotEmpty(t, res.Repairs)
	assert.Equal(t, reconciler.RepairQuarantined, res.Repairs[0].Outcome)
	assert.Equal(t, "not json", res.Repairs[0].Original)
	assert.Equal(t, 1, res.Metadata.Stats.Quarantined)
	assert.Empty(t, res.Diagnostics)
}

func TestDevicesRepairCopiesCleanDescriptor(t *testing.T) {
	d1, d2 := device.New("x"), device.New("x")
	d1.StatusRange.Set("mode", &device.StatusRange{Code: "mode", Type: "Enum", Values: "{range:"})
	d2.StatusRange.Set("mode", &device.StatusRange{Code: "mode", Type: "Enum", Values: `{"range":["a","b"]}`})
	d1.LocalStrategy.Set(4, device.Strategy{"config_item": map[string]any{"valueType": "Enum", "valueDesc": "broken"}})
	d2.LocalStrategy.Set(4, device.Strategy{"config_item": map[string]any{"valueType": "Enum", "valueDesc": `{"range":["a"]}`}})

	res, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	sr, _ := d1.StatusRange.Get("mode")
	assert.Equal(t, `{"range":["a","b"]}`, sr.Values)
	s, _ := d1.LocalStrategy.Get(4)
	item, _ := s.ConfigItem()
	assert.Equal(t, `{"range":["a"]}`, item["valueDesc"])
	require.Len(t, res.Repairs, 2)
	for _, rep := range res.Repairs {
		assert.Equal(t, reconciler.RepairCopied, rep.Outcome)
		assert.Equal(t, provenance.SideFirst, rep.Side)
	}
}

func TestDevicesScalarConflictOnStatusIsSilent(t *testing.T) {
	d1, d2 := device.New("x"), device.New("x")
	d1.Status.Set("temp", 21.0)
	d2.Status.Set("temp", 22.0)

	res, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	v, _ := d2.StatusValue("temp")
	assert.Equal(t, 21.0, v)
	assert.Empty(t, res.Diagnostics)
}

func TestDevicesDescriptorConflictIsReportedAndLogged(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)

	d1, d2 := device.New("x"), device.New("x")
	d1.Function.Set("switch", &device.Function{Code: "switch", Type: "Boolean", Values: "{}", Name: "Switch"})
	d2.Function.Set("switch", &device.Function{Code: "switch", Type: "Boolean", Values: "{}", Name: "Power"})

	res, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "function[switch].name")
	fn, _ := d2.Function.Get("switch")
	assert.Equal(t, "Switch", fn.Name)

	captured.AssertContains(t, "Messages for merging of device pair")
	captured.AssertContains(t, res.RunID)
	captured.AssertContains(t, "function[switch].name")
}

func TestDevicesTransportPreference(t *testing.T) {
	d1, d2 := sharingDevice(), cloudDevice()

	res, err := newReconciler(t).Devices(context.Background(), d2, d1)
	require.NoError(t, err)

	s, _ := d1.LocalStrategy.Get(1)
	assert.Equal(t, false, s["use_open_api"])
	assert.Equal(t, false, s["property_update"])
	assert.Equal(t, "switch_led", s["status_code"])
	assert.Equal(t, 1, res.Metadata.Stats.TransportsAligned)
	assert.Empty(t, res.Diagnostics)
}

func TestDevicesTransportFallThrough(t *testing.T) {
	d1, d2 := device.New("x"), device.New("x")
	d1.LocalStrategy.Set(1, device.Strategy{"use_open_api": true, "property_update": true, "status_code": "a"})
	d2.LocalStrategy.Set(1, device.Strategy{"use_open_api": true, "property_update": true})

	res, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	assert.Zero(t, res.Metadata.Stats.TransportsAligned)
	s, _ := d1.LocalStrategy.Get(1)
	assert.Equal(t, "a", s["status_code"])
}

func TestDevicesTransportPropertyUpdate(t *testing.T) {
	tests := []struct {
		name       string
		first      device.Strategy
		second     device.Strategy
		wantWinner provenance.Side
		wantCode   string
	}{
		{
			name:       "second without property updates wins",
			first:      device.Strategy{"use_open_api": true, "property_update": true, "status_code": "a"},
			second:     device.Strategy{"use_open_api": true, "property_update": false, "status_code": "b"},
			wantWinner: provenance.SideSecond,
			wantCode:   "b",
		},
		{
			name:       "first without property updates wins",
			first:      device.Strategy{"use_open_api": true, "status_code": "a"},
			second:     device.Strategy{"use_open_api": true, "property_update": true, "status_code": "b"},
			wantWinner: provenance.SideFirst,
			wantCode:   "a",
		},
		{
			name:       "first without OpenAPI wins",
			first:      device.Strategy{"use_open_api": false, "property_update": true, "status_code": "a"},
			second:     device.Strategy{"use_open_api": true, "property_update": false, "status_code": "b"},
			wantWinner: provenance.SideFirst,
			wantCode:   "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d1, d2 := device.New("x"), device.New("x")
			d1.LocalStrategy.Set(1, tt.first)
			d2.LocalStrategy.Set(1, tt.second)
			want := tt.first
			if tt.wantWinner == provenance.SideSecond {
				want = tt.second
			}
			wantOpenAPI, wantProperty := want.UseOpenAPI(), want.PropertyUpdate()

			res, err := newReconciler(t, reconciler.WithProvenance(true)).Devices(context.Background(), d1, d2)
			require.NoError(t, err)

			assert.Equal(t, 1, res.Metadata.Stats.TransportsAligned)
			s, _ := d2.LocalStrategy.Get(1)
			assert.Equal(t, tt.wantCode, s.StatusCode())
			assert.Equal(t, wantOpenAPI, s.UseOpenAPI())
			assert.Equal(t, wantProperty, s.PropertyUpdate())

			var winners []provenance.Side
			for _, p := range res.Provenance["local_strategy:1"] {
				if p.Step == provenance.StepTransport {
					winners = append(winners, p.Winner)
				}
			}
			assert.Equal(t, []provenance.Side{tt.wantWinner}, winners)
		})
	}
}

func TestDevicesStrategyValueDescriptors(t *testing.T) {
	tests := []struct {
		name            string
		first, second   string
		wantDesc        string
		wantQuarantined int
		wantValueDescs  int
	}{
		{
			name:            "both broken are quarantined",
			first:           "bad1",
			second:          "bad2",
			wantDesc:        `{"ErrorValue1":"bad1","ErrorValue2":"bad2"}`,
			wantQuarantined: 1,
		},
		{
			name:           "differing descriptors are aligned",
			first:          `{"min":0,"max":10}`,
			second:         `{"min":0,"max":20}`,
			wantDesc:       `{"max":20,"min":0}`,
			wantValueDescs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item1 := map[string]any{"valueType": "Integer", "valueDesc": tt.first}
			item2 := map[string]any{"valueType": "Integer", "valueDesc": tt.second}
			d1, d2 := device.New("x"), device.New("x")
			d1.LocalStrategy.Set(7, device.Strategy{"config_item": item1})
			d2.LocalStrategy.Set(7, device.Strategy{"config_item": item2})

			res, err := newReconciler(t).Devices(context.Background(), d1, d2)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDesc, item1["valueDesc"])
			assert.Equal(t, tt.wantDesc, item2["valueDesc"])
			assert.Equal(t, tt.wantQuarantined, res.Metadata.Stats.Quarantined)
			assert.Equal(t, tt.wantValueDescs, res.Metadata.Stats.ValueDescsAligned)
			assert.Empty(t, res.Diagnostics)
		})
	}
}

func TestDevicesRerunAfterQuarantineIsVacuous(t *testing.T) {
	d1, d2 := device.New("x"), device.New("x")
	d1.Function.Set("x", &device.Function{Code: "x", Type: "String", Values: "not json"})
	d2.Function.Set("x", &device.Function{Code: "x", Type: "String", Values: "also not json"})

	res, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)
	require.Len(t, res.Repairs, 1)
	assert.Equal(t, 1, res.Metadata.Stats.Repaired)

	res, err = newReconciler(t, reconciler.WithProvenance(true)).Devices(context.Background(), d1, d2)
	require.NoError(t, err)
	assert.Empty(t, res.Repairs)
	assert.Zero(t, res.Metadata.Stats.Repaired)
	assert.Zero(t, res.Metadata.Stats.Quarantined)
	assert.Empty(t, res.Provenance)
}

func TestDevicesLogsStepAndDatapoint(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)

	d1, d2 := device.New("x"), device.New("x")
	d1.LocalStrategy.Set(7, device.Strategy{"use_open_api": false,
		"config_item": map[string]any{"valueType": "Integer", "valueDesc": "bad1"}})
	d2.LocalStrategy.Set(7, device.Strategy{"use_open_api": true,
		"config_item": map[string]any{"valueType": "Integer", "valueDesc": "bad2"}})

	_, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	captured.AssertContains(t, `"step":"repair"`)
	captured.AssertContains(t, `"step":"transport"`)
	captured.AssertContains(t, `"datapoint":"local_strategy:7"`)
}

func TestDevicesValueConverter(t *testing.T) {
	tests := []struct {
		name   string
		first  any
		second any
		want   any
	}{
		{"default loses", "default", "scale", "scale"},
		{"absent loses", nil, "scale", "scale"},
		{"named beats default on second", "scale", "default", "scale"},
		{"first named wins", "scale", "percent", "scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d1, d2 := device.New("x"), device.New("x")
			s1, s2 := device.Strategy{}, device.Strategy{}
			if tt.first != nil {
				s1["value_convert"] = tt.first
			}
			if tt.second != nil {
				s2["value_convert"] = tt.second
			}
			d1.LocalStrategy.Set(1, s1)
			d2.LocalStrategy.Set(1, s2)

			res, err := newReconciler(t).Devices(context.Background(), d1, d2)
			require.NoError(t, err)

			s, _ := d2.LocalStrategy.Get(1)
			assert.Equal(t, tt.want, s["value_convert"])
			assert.Empty(t, res.Diagnostics)
		})
	}
}

func TestDevicesTypeAlignment(t *testing.T) {
	d1, d2 := device.New("x"), device.New("x")
	d1.StatusRange.Set("mode", &device.StatusRange{Code: "mode", Type: "Integer", Values: `{"max":3}`})
	d2.StatusRange.Set("mode", &device.StatusRange{Code: "mode", Type: "Enum", Values: `{"range":["eco","boost"]}`})
	d2.Status.Set("mode", "eco")
	d1.LocalStrategy.Set(5, device.Strategy{"status_code": "mode", "config_item": map[string]any{"valueType": "Integer", "valueDesc": `{"max":3}`}})
	d2.LocalStrategy.Set(5, device.Strategy{"status_code": "mode", "config_item": map[string]any{"valueType": "Enum", "valueDesc": `{"range":["eco","boost"]}`}})

	res, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	sr, _ := d1.StatusRange.Get("mode")
	assert.Equal(t, &device.StatusRange{Code: "mode", Type: "Enum", Values: `{"range":["eco","boost"]}`, DPID: 5}, sr)
	s, _ := d1.LocalStrategy.Get(5)
	want := map[string]any{"valueType": "Enum", "valueDesc": `{"range":["eco","boost"]}`}
	if diff := cmp.Diff(want, s["config_item"]); diff != "" {
		t.Errorf("config_item mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, res.Metadata.Stats.TypesAligned)
	assert.Empty(t, res.Diagnostics)
}

func TestDevicesIdempotent(t *testing.T) {
	d1, d2 := sharingDevice(), cloudDevice()
	r := newReconciler(t)

	_, err := r.Devices(context.Background(), d1, d2)
	require.NoError(t, err)
	snapshot := d1.Copy()

	res, err := r.Devices(context.Background(), d1, d2)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.HasChanges(), res.Changesets.First)
	assert.Equal(t, snapshot.String(), d1.String())

	self := sharingDevice()
	res, err = r.Devices(context.Background(), self, self)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.HasChanges())
}

func TestDevicesSingletonFields(t *testing.T) {
	d1, d2 := sharingDevice(), cloudDevice()
	d2.SetUp = true

	_, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	assert.Equal(t, `{"services":[]}`, d1.DataModel)
	assert.True(t, d1.SetUp)

	a, b := device.New("y"), device.New("y")
	a.DataModel, b.DataModel = "first", "second"
	_, err = newReconciler(t).Devices(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "first", b.DataModel)
}

func TestDevicesProvenanceAndChangesets(t *testing.T) {
	d1, d2 := sharingDevice(), cloudDevice()

	res, err := newReconciler(t, reconciler.WithProvenance(true)).Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	require.NotEmpty(t, res.Provenance["status_range:bright_value"])
	assert.Equal(t, provenance.StepValueDesc, res.Provenance["status_range:bright_value"][0].Step)
	require.NotEmpty(t, res.Provenance["local_strategy:1"])

	require.NotNil(t, res.Changesets.First)
	assert.Equal(t, []string{"temp_value"}, res.Changesets.First.Table("status_range").Added)
	assert.NotEmpty(t, res.RunID)
	assert.Contains(t, res.Summary(), "device bf8a7c3e0d")
}

func TestDevicesCustomCollaborators(t *testing.T) {
	var fixed []string
	var resolved int

	r := newReconciler(t,
		reconciler.WithResolver(authority.ResolverFunc(func(first, second map[string]any, field string, evidence any) authority.Preference {
			resolved++
			return authority.NoPreference
		})),
		reconciler.WithAligner(schema.AlignerFunc(func(first, second map[string]any, _ any) map[string]any {
			return map[string]any{"custom": true, "min": second["min"]}
		})),
		reconciler.WithFixers(schema.FixerFunc(func(d *device.Device) { fixed = append(fixed, d.ID) })),
		reconciler.WithChangesets(false),
	)

	d1, d2 := device.New("a"), device.New("a")
	d1.Function.Set("f", &device.Function{Code: "f", Type: "Integer", Values: `{"min":1}`})
	d2.Function.Set("f", &device.Function{Code: "f", Type: "Integer", Values: `{"min":2}`})

	res, err := r.Devices(context.Background(), d1, d2)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a"}, fixed)
	assert.Equal(t, 1, resolved)
	fn, _ := d1.Function.Get("f")
	assert.Equal(t, `{"custom":true,"min":2}`, fn.Values)
	assert.Empty(t, res.Diagnostics)
	assert.Nil(t, res.Changesets.First)
}

func TestDevicesValidation(t *testing.T) {
	r := newReconciler(t)

	_, err := r.Devices(context.Background(), nil, device.New("x"))
	assert.True(t, errors.IsValidationError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Devices(ctx, device.New("x"), device.New("x"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = reconciler.New(reconciler.WithResolver(nil))
	assert.True(t, errors.IsValidationError(err))
	_, err = reconciler.New(reconciler.WithAligner(nil))
	assert.True(t, errors.IsValidationError(err))
	_, err = reconciler.New(reconciler.WithTracker(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestDevicesNilTablesAreAllocated(t *testing.T) {
	d1 := &device.Device{ID: "x"}
	d2 := device.New("x")
	d2.Status.Set("a", 1.0)

	_, err := newReconciler(t).Devices(context.Background(), d1, d2)
	require.NoError(t, err)
	assert.True(t, d1.Status.Has("a"))
}
