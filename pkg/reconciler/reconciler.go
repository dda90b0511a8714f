// Package reconciler reconciles two independently sourced records of the
// same physical device into one consistent description.
//
// Reconciliation repairs malformed value descriptors, normalizes both
// records, aligns their datapoint types, transport metadata, value
// converters and value descriptors, deep-merges the four tables and finally
// makes both records share the merged tables. Both records are mutated in
// place. Data-shape problems never fail a run; they are repaired or reported
// as diagnostics.
//
// A pair must not be reconciled concurrently with itself; distinct pairs may
// be reconciled in parallel with the same Reconciler.
package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/differ"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/logging"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/smartmerge"
)

// Reconciler is the main interface for reconciling device pairs.
type Reconciler interface {
	// Devices reconciles first and second in place. After it returns both
	// devices hold the same four table handles.
	Devices(ctx context.Context, first, second *device.Device) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	options *options
	differ  differ.Differ
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		options: options,
		differ:  differ.New(),
	}, nil
}

// run holds the state of one reconciliation.
type run struct {
	ctx     context.Context
	logger  *zerolog.Logger
	tracker provenance.Tracker
	id      string
	first   *device.Device
	second  *device.Device
	result  *Result
}

// track records a decision for the pair.
func (rn *run) track(p provenance.Provenance) {
	rn.logFor(p.Step, p.Table, p.Key).Debug().
		Str("field", p.Field).
		Str("winner", string(p.Winner)).
		Str("reason", p.Reason).
		Msg("Recorded reconciliation decision")
	rn.tracker.Track(rn.result.DeviceID, p)
}

// logFor returns the run logger tagged with a step and a table:key datapoint.
func (rn *run) logFor(step, table, key string) *zerolog.Logger {
	return logging.FromContext(logging.WithDatapoint(logging.WithStep(rn.ctx, step), table+":"+key))
}

// Devices performs reconciliation step by step.
func (r *reconciler) Devices(ctx context.Context, first, second *device.Device) (*Result, error) {
	if first == nil || second == nil {
		return nil, &errors.ValidationError{
			Field:   "device",
			Message: "cannot reconcile a nil device",
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 1: Snapshot both records for diagnostics and changesets
	first.EnsureTables()
	second.EnsureTables()
	snapFirst, snapSecond := first.Copy(), second.Copy()

	rn := r.initialize(ctx, first, second)
	rn.logger.Debug().
		Str("device1", snapFirst.String()).
		Str("device2", snapSecond.String()).
		Msg("Starting device reconciliation")

	// Step 2: Repair malformed value descriptors in both directions
	r.repair(rn, first, second, provenance.SideFirst)
	r.repair(rn, second, first, provenance.SideSecond)

	// Step 3: Normalize each record independently
	r.options.fixers.Fix(first)
	r.options.fixers.Fix(second)

	// Step 4: Decide which side holds the truth, in dependency order
	r.alignTypes(rn)
	r.alignTransport(rn)
	r.alignValueConverters(rn)
	r.alignValueDescriptors(rn)

	// Step 5: Deep-merge the four tables into the first device's tables
	diags := smartmerge.NewDiagnostics()
	smartmerge.Merge(device.StatusRangeView(first.StatusRange), device.StatusRangeView(second.StatusRange), diags, smartmerge.Root(constants.TableStatusRange))
	smartmerge.Merge(device.FunctionView(first.Function), device.FunctionView(second.Function), diags, smartmerge.Root(constants.TableFunction))
	smartmerge.Merge(device.StatusView(first.Status), device.StatusView(second.Status), nil, smartmerge.Root(constants.TableStatus))
	smartmerge.Merge(device.LocalStrategyView(first.LocalStrategy), device.LocalStrategyView(second.LocalStrategy), diags, smartmerge.Root(constants.TableLocalStrategy))
	rn.result.Diagnostics = diags.Messages()

	// Step 6: Report conflicts as one batch
	if diags.Len() > 0 {
		rn.logger.Warn().
			Str("device1", snapFirst.String()).
			Str("device2", snapSecond.String()).
			Int("count", diags.Len()).
			Msg("Messages for merging of device pair")
		for _, msg := range rn.result.Diagnostics {
			rn.logger.Warn().Msg(msg)
		}
	}

	// Step 7: Share the merged tables and fill singleton fields
	alias(first, second)

	return r.finish(rn, snapFirst, snapSecond), nil
}

// initialize sets up the run context.
func (r *reconciler) initialize(ctx context.Context, first, second *device.Device) *run {
	id := uuid.NewString()
	deviceID := first.ID
	if deviceID == "" {
		deviceID = second.ID
	}

	ctx = logging.WithRun(logging.WithDevice(ctx, deviceID), id)
	return &run{
		ctx:     ctx,
		logger:  logging.FromContext(ctx),
		tracker: r.options.tracker,
		id:      id,
		first:   first,
		second:  second,
		result: &Result{
			RunID:    id,
			DeviceID: deviceID,
			Metadata: ResultMetadata{StartTime: time.Now()},
		},
	}
}

// alias points second at first's merged tables. After this the two devices
// intentionally share the same table allocations.
func alias(first, second *device.Device) {
	second.StatusRange = first.StatusRange
	second.Function = first.Function
	second.Status = first.Status
	second.LocalStrategy = first.LocalStrategy

	switch {
	case first.DataModel != "":
		second.DataModel = first.DataModel
	case second.DataModel != "":
		first.DataModel = second.DataModel
	}
	switch {
	case first.SetUp:
		second.SetUp = first.SetUp
	case second.SetUp:
		first.SetUp = second.SetUp
	}
}

// finish fills in changesets, provenance and timing.
func (r *reconciler) finish(rn *run, snapFirst, snapSecond *device.Device) *Result {
	res := rn.result
	if r.options.changesets {
		res.Changesets.First = r.differ.Devices(snapFirst, rn.first)
		res.Changesets.Second = r.differ.Devices(snapSecond, rn.second)
	}
	if r.options.tracking {
		res.Provenance = rn.tracker.FindByDevice(res.DeviceID)
	}

	res.Metadata.EndTime = time.Now()
	res.Metadata.Duration = res.Metadata.EndTime.Sub(res.Metadata.StartTime)

	rn.logger.Debug().
		Int("diagnostics", len(res.Diagnostics)).
		Int("repairs", len(res.Repairs)).
		Dur("duration", res.Metadata.Duration).
		Msg("Device reconciliation completed")
	return res
}
