// Package route provides the route command implementation.
package route

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/devmerge/internal/appcontext"
	"github.com/agentstation/devmerge/internal/cmd/output"
	"github.com/agentstation/devmerge/internal/cmd/pair"
	"github.com/agentstation/devmerge/internal/cmd/table"
	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/smartmerge"
)

// Row is one routed code in structured output.
type Row struct {
	Code  string `json:"code" yaml:"code"`
	DPID  string `json:"dp_id" yaml:"dp_id"`
	Route string `json:"route" yaml:"route"`
}

// NewCommand creates the route command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *pair.Flags
	var sets []string

	cmd := &cobra.Command{
		Use:     "route <sharing-file> <openapi-file> <device-id> [code...]",
		GroupID: "core",
		Short:   "Show which API a command for each datapoint is sent through",
		Args:    cobra.MinimumNArgs(3),
		Long: `Route reconciles the two files, then reports for each code of the device
whether commands go through the sharing API, the OpenAPI or OpenAPI property
updates. Without codes every known code is listed.

With --set code=value the commands are split into a per-transport plan.
Values are parsed as JSON when possible.`,
		Example: `  devmerge route sharing.yaml openapi.json bf8a7c3e0d
  devmerge route sharing.yaml openapi.json bf8a7c3e0d switch_led bright_value
  devmerge route sharing.yaml openapi.json bf8a7c3e0d --set switch_led=true --set bright_value=500 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			outcome, err := pair.Load(ctx, app, args[0], args[1], flags)
			if outcome == nil {
				return err
			}
			if err != nil {
				app.Logger().Warn().Err(err).Msg("Some devices could not be reconciled")
			}

			id := args[2]
			d, ok := outcome.First.Devices()[id]
			if !ok {
				d, ok = outcome.Second.Devices()[id]
			}
			if !ok {
				return &errors.NotFoundError{Resource: "device", ID: id}
			}

			w := cmd.OutOrStdout()
			format := output.DetectFormat(app.OutputFormat())

			if len(sets) > 0 {
				commands, err := parseCommands(sets)
				if err != nil {
					return err
				}
				plan := d.PlanCommands(commands)
				if format == output.FormatTable {
					format = output.FormatYAML
				}
				return output.NewFormatter(format).Format(w, plan)
			}

			codes := args[3:]
			if len(codes) == 0 {
				codes = d.Codes()
			}

			switch format {
			case output.FormatJSON, output.FormatYAML:
				data := table.RoutesToTableData(d, codes)
				rows := make([]Row, 0, len(data.Rows))
				for _, r := range data.Rows {
					rows = append(rows, Row{Code: r[0], DPID: r[1], Route: r[2]})
				}
				return output.NewFormatter(format).Format(w, rows)
			default:
				return output.NewFormatter(output.FormatTable).Format(w, table.RoutesToTableData(d, codes))
			}
		},
	}

	flags = pair.AddFlags(cmd, false)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "command to plan, as code=value (repeatable)")

	return cmd
}

// parseCommands turns code=value pairs into commands.
func parseCommands(sets []string) ([]device.Command, error) {
	commands := make([]device.Command, 0, len(sets))
	for _, s := range sets {
		code, raw, found := strings.Cut(s, "=")
		if !found || code == "" {
			return nil, &errors.ValidationError{
				Field:   "set",
				Value:   s,
				Message: fmt.Sprintf("expected code=value, got %q", s),
			}
		}
		var value any = raw
		if v, ok := smartmerge.ParseJSON(raw); ok {
			value = v
		}
		commands = append(commands, device.Command{Code: code, Value: value})
	}
	return commands, nil
}
