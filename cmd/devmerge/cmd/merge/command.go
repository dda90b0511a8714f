// Package merge provides the merge command implementation.
package merge

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/devmerge/internal/appcontext"
	"github.com/agentstation/devmerge/internal/cmd/output"
	"github.com/agentstation/devmerge/internal/cmd/pair"
	"github.com/agentstation/devmerge/internal/cmd/table"
	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/reconciler"
)

// Flags holds the merge command flags.
type Flags struct {
	*pair.Flags
	Write            string
	ProvenanceFile   string
	ProvenanceFilter []string
}

// NewCommand creates the merge command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "merge <sharing-file> <openapi-file>",
		GroupID: "core",
		Short:   "Reconcile the device records of two accounts",
		Args:    cobra.ExactArgs(2),
		Long: `Merge reconciles every device present in both files.

Each pair is repaired, aligned (types, transport, value converters, value
descriptors) and deep-merged, so both records end up with the same tables.
Conflicts are resolved in favour of the sharing record and reported as
diagnostics. Files may be JSON, YAML or TOML.`,
		Example: `  devmerge merge sharing.yaml openapi.json
  devmerge merge sharing.yaml openapi.json --write merged.yaml
  devmerge merge sharing.yaml openapi.json --provenance --provenance-filter 'local_strategy:*'
  devmerge merge sharing.yaml openapi.json -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args[0], args[1], flags)
		},
	}

	flags.Flags = pair.AddFlags(cmd, app.ProvenanceEnabled())
	cmd.Flags().StringVarP(&flags.Write, "write", "w", "",
		"write the merged devices to this file (.json or .yaml)")
	cmd.Flags().StringVar(&flags.ProvenanceFile, "provenance-file", "",
		"save the decision history as YAML (implies --provenance)")
	cmd.Flags().StringSliceVar(&flags.ProvenanceFilter, "provenance-filter", nil,
		"only show datapoints matching these patterns, e.g. 'status_range:*'")

	return cmd
}

// Report is the structured merge output.
type Report struct {
	Summary  string          `json:"summary" yaml:"summary"`
	Devices  []DeviceReport  `json:"devices" yaml:"devices"`
	Unpaired UnpairedDevices `json:"unpaired" yaml:"unpaired"`
}

// DeviceReport summarizes one reconciled pair.
type DeviceReport struct {
	ID          string                      `json:"id" yaml:"id"`
	RunID       string                      `json:"run_id" yaml:"run_id"`
	Diagnostics []string                    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Repairs     []reconciler.Repair         `json:"repairs,omitempty" yaml:"repairs,omitempty"`
	Stats       reconciler.ResultStatistics `json:"stats" yaml:"stats"`
}

// UnpairedDevices lists ids present on one side only.
type UnpairedDevices struct {
	Sharing []string `json:"sharing,omitempty" yaml:"sharing,omitempty"`
	OpenAPI []string `json:"openapi,omitempty" yaml:"openapi,omitempty"`
}

func run(cmd *cobra.Command, app appcontext.Interface, firstPath, secondPath string, flags *Flags) error {
	ctx := cmd.Context()
	logger := app.Logger()

	if flags.ProvenanceFile != "" {
		flags.Provenance = true
	}

	outcome, mergeErr := pair.Load(ctx, app, firstPath, secondPath, flags.Flags)
	if outcome == nil {
		return mergeErr
	}
	if mergeErr != nil {
		logger.Warn().Err(mergeErr).Msg("Some devices could not be reconciled")
	}

	result := outcome.Result
	ids := result.IDs()
	w := cmd.OutOrStdout()

	format := output.DetectFormat(app.OutputFormat())
	switch format {
	case output.FormatJSON, output.FormatYAML:
		report := Report{
			Summary:  result.Summary(),
			Unpaired: UnpairedDevices{Sharing: result.Unpaired.First, OpenAPI: result.Unpaired.Second},
		}
		for _, id := range ids {
			res := result.Results[id]
			dr := DeviceReport{ID: id, RunID: res.RunID, Repairs: res.Repairs, Stats: res.Metadata.Stats}
			if app.ShowDiagnostics() {
				dr.Diagnostics = res.Diagnostics
			}
			report.Devices = append(report.Devices, dr)
		}
		if err := output.NewFormatter(format).Format(w, report); err != nil {
			return err
		}
	default:
		formatter := output.NewFormatter(output.FormatTable)
		if err := formatter.Format(w, table.ResultsToTableData(ids, result.Results)); err != nil {
			return err
		}
		if app.ShowDiagnostics() && result.Diagnostics() > 0 {
			fmt.Fprintln(w)
			if err := formatter.Format(w, table.DiagnosticsToTableData(ids, result.Results)); err != nil {
				return err
			}
		}
		if outcome.Tracker != nil {
			for _, id := range ids {
				datapoints := table.FilterProvenance(result.Results[id].Provenance, flags.ProvenanceFilter)
				if len(datapoints) == 0 {
					continue
				}
				fmt.Fprintf(w, "\nProvenance for %s:\n", id)
				if err := formatter.Format(w, table.ProvenanceToTableData(datapoints)); err != nil {
					return err
				}
			}
		}
		fmt.Fprintln(w, result.Summary())
	}

	if flags.Write != "" {
		if err := writeDevices(flags.Write, outcome.Merged()); err != nil {
			return err
		}
		logger.Info().Str("path", flags.Write).Int("devices", len(ids)).Msg("Wrote merged devices")
	}

	if flags.ProvenanceFile != "" && outcome.Tracker != nil {
		if err := provenance.Save(flags.ProvenanceFile, outcome.Tracker.Map()); err != nil {
			return errors.WrapIO("write", flags.ProvenanceFile, err)
		}
		logger.Info().Str("path", flags.ProvenanceFile).Msg("Saved provenance")
	}

	return mergeErr
}

// writeDevices encodes the merged devices in the format implied by path.
func writeDevices(path string, devices []*device.Device) error {
	format, err := device.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := device.Encode(&device.Document{Source: "merged", Devices: devices}, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
