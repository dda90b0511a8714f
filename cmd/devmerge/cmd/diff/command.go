// Package diff provides the diff command implementation.
package diff

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/devmerge/internal/appcontext"
	"github.com/agentstation/devmerge/internal/cmd/output"
	"github.com/agentstation/devmerge/internal/cmd/pair"
	"github.com/agentstation/devmerge/internal/cmd/table"
	"github.com/agentstation/devmerge/pkg/differ"
)

// NewCommand creates the diff command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *pair.Flags
	var side string

	cmd := &cobra.Command{
		Use:     "diff <sharing-file> <openapi-file>",
		GroupID: "core",
		Short:   "Show what reconciliation would change in each record",
		Args:    cobra.ExactArgs(2),
		Long: `Diff reconciles the two files in memory and prints, per device, the
entries and fields each record gains or changes. The files are not modified.`,
		Example: `  devmerge diff sharing.yaml openapi.json
  devmerge diff sharing.yaml openapi.json --side openapi -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			outcome, mergeErr := pair.Load(ctx, app, args[0], args[1], flags)
			if outcome == nil {
				return mergeErr
			}

			var changesets []*differ.Changeset
			for _, id := range outcome.Result.IDs() {
				res := outcome.Result.Results[id]
				if side != "openapi" && res.Changesets.First != nil {
					changesets = append(changesets, res.Changesets.First)
				}
				if side != "sharing" && res.Changesets.Second != nil {
					changesets = append(changesets, res.Changesets.Second)
				}
			}

			w := cmd.OutOrStdout()
			format := output.DetectFormat(app.OutputFormat())
			switch format {
			case output.FormatJSON, output.FormatYAML:
				if err := output.NewFormatter(format).Format(w, changesets); err != nil {
					return err
				}
			default:
				if err := output.NewFormatter(output.FormatTable).Format(w, table.ChangesetsToTableData(changesets)); err != nil {
					return err
				}
			}
			return mergeErr
		},
	}

	flags = pair.AddFlags(cmd, false)
	cmd.Flags().StringVar(&side, "side", "both", "which record to diff: sharing, openapi or both")

	return cmd
}
