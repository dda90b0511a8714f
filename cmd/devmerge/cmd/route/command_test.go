package route

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/devmerge/internal/appcontext"
	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/errors"
)

const sharingDoc = `
devices:
  - id: plug1
    function:
      switch_1: {code: switch_1, type: Boolean, values: "{}", dp_id: 1}
    local_strategy:
      "1": {status_code: switch_1, use_open_api: false}
`

const cloudDoc = `{"devices": [{
  "id": "plug1",
  "function": {
    "switch_1": {"code": "switch_1", "type": "Boolean", "values": "{}", "dp_id": 1},
    "countdown_1": {"code": "countdown_1", "type": "Integer", "values": "{\"min\":0,\"max\":86400}", "dp_id": 9}
  },
  "local_strategy": {
    "1": {"status_code": "switch_1", "use_open_api": true},
    "9": {"status_code": "countdown_1", "use_open_api": true, "property_update": true}
  }
}]}`

func run(t *testing.T, app appcontext.Interface, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	sharing := filepath.Join(dir, "sharing.yaml")
	cloud := filepath.Join(dir, "openapi.json")
	require.NoError(t, os.WriteFile(sharing, []byte(sharingDoc), 0o644))
	require.NoError(t, os.WriteFile(cloud, []byte(cloudDoc), 0o644))

	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{sharing, cloud}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRouteJSON(t *testing.T) {
	out, err := run(t, &appcontext.Mock{Format: "json"}, "plug1")
	require.NoError(t, err)

	var rows []Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []Row{
		{Code: "countdown_1", DPID: "9", Route: "openapi-property"},
		{Code: "switch_1", DPID: "1", Route: "sharing"},
	}, rows)
}

func TestRoutePlan(t *testing.T) {
	out, err := run(t, &appcontext.Mock{Format: "json"}, "plug1",
		"--set", "switch_1=false", "--set", "countdown_1=60", "--set", "mystery=on")
	require.NoError(t, err)

	var plan device.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))

	require.Len(t, plan.Sharing, 2)
	assert.Equal(t, "switch_1", plan.Sharing[0].Code)
	assert.Equal(t, false, plan.Sharing[0].Value)
	assert.Equal(t, "mystery", plan.Sharing[1].Code)
	assert.Equal(t, "on", plan.Sharing[1].Value)
	require.Len(t, plan.Property, 1)
	assert.Equal(t, "countdown_1", plan.Property[0].Code)
	assert.EqualValues(t, 60, plan.Property[0].Value)
	assert.Empty(t, plan.OpenAPI)
}

func TestRouteUnknownDevice(t *testing.T) {
	_, err := run(t, &appcontext.Mock{Format: "json"}, "ghost")
	assert.True(t, errors.IsNotFound(err))
}

func TestParseCommands(t *testing.T) {
	commands, err := parseCommands([]string{`mode={"a":1}`, "name=plain"})
	require.NoError(t, err)
	assert.Equal(t, "mode", commands[0].Code)
	assert.IsType(t, map[string]any{}, commands[0].Value)
	assert.Equal(t, "plain", commands[1].Value)

	_, err = parseCommands([]string{"novalue"})
	assert.True(t, errors.IsValidationError(err))
}
