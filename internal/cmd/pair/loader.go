// Package pair provides the load-and-reconcile step shared by CLI commands.
package pair

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/devmerge"
	"github.com/agentstation/devmerge/internal/appcontext"
	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/reconciler"
	"github.com/agentstation/devmerge/pkg/sources"
)

// Flags configures how the two device files are loaded and reconciled.
type Flags struct {
	ReuseConfig bool
	Timeout     time.Duration
	Provenance  bool
}

// AddFlags adds the pairing flags to cmd. provenanceDefault comes from config.
func AddFlags(cmd *cobra.Command, provenanceDefault bool) *Flags {
	flags := &Flags{}
	cmd.Flags().BoolVar(&flags.ReuseConfig, "reuse-config", false,
		"the sharing account borrows credentials from another integration")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0,
		"timeout for loading each device file (0 disables)")
	cmd.Flags().BoolVar(&flags.Provenance, "provenance", provenanceDefault,
		"track which side won each reconciliation decision")
	return flags
}

// Outcome holds both sources after reconciliation.
type Outcome struct {
	First   *sources.FileSource
	Second  *sources.FileSource
	Result  *devmerge.MapResult
	Tracker provenance.Tracker
}

// Merged returns the reconciled devices of the first source, sorted by id.
// After reconciliation both sources hold the same tables, so one side is
// enough to describe the merged state.
func (o *Outcome) Merged() []*device.Device {
	devices := o.First.Devices()
	out := make([]*device.Device, 0, len(o.Result.Results))
	for _, id := range o.Result.IDs() {
		if d, ok := devices[id]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Load reads the sharing and OpenAPI device files and reconciles them.
// A non-nil Outcome is returned alongside pair failures so callers can
// still report the pairs that succeeded.
func Load(ctx context.Context, app appcontext.Interface, firstPath, secondPath string, flags *Flags) (*Outcome, error) {
	if flags == nil {
		flags = &Flags{}
	}

	var opts []devmerge.Option
	outcome := &Outcome{
		First:  sources.NewFileSource(sources.SharingID, firstPath),
		Second: sources.NewFileSource(sources.OpenAPIID, secondPath),
	}
	if flags.Provenance {
		outcome.Tracker = provenance.NewTracker(true)
		opts = append(opts, devmerge.WithReconcilerOptions(reconciler.WithTracker(outcome.Tracker)))
	}
	opts = append(opts, devmerge.WithRefreshOptions(
		sources.WithReuseConfig(flags.ReuseConfig),
		sources.WithTimeout(flags.Timeout),
	))

	dm, err := app.ClientWithOptions(opts...)
	if err != nil {
		return nil, err
	}

	logger := app.Logger()
	dm.OnDeviceUnpaired(func(id string, side provenance.Side) {
		logger.Info().Str("device_id", id).Str("side", string(side)).Msg("Device has no counterpart, left unchanged")
	})

	result, err := dm.MergeSources(ctx, outcome.First, outcome.Second)
	if result == nil {
		return nil, err
	}
	outcome.Result = result
	return outcome, err
}
