package devmerge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/devmerge/pkg/device"
	pkgerrors "github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/logging"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/reconciler"
	"github.com/agentstation/devmerge/pkg/sources"
)

// MapResult is the outcome of reconciling two device maps.
type MapResult struct {
	// Results holds one result per reconciled device id.
	Results map[string]*reconciler.Result

	// Unpaired lists device ids found on one side only, sorted.
	Unpaired struct {
		First  []string
		Second []string
	}
}

// IDs returns the reconciled device ids in sorted order.
func (r *MapResult) IDs() []string {
	ids := make([]string, 0, len(r.Results))
	for id := range r.Results {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Diagnostics returns the total number of merge conflicts.
func (r *MapResult) Diagnostics() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Diagnostics)
	}
	return n
}

// Summary returns a one-line description of the run.
func (r *MapResult) Summary() string {
	return fmt.Sprintf("%d devices reconciled, %d diagnostics, %d unpaired (%d first, %d second)",
		len(r.Results), r.Diagnostics(),
		len(r.Unpaired.First)+len(r.Unpaired.Second), len(r.Unpaired.First), len(r.Unpaired.Second))
}

// MergeDevices reconciles first and second in place.
func (c *client) MergeDevices(ctx context.Context, first, second *device.Device) (*reconciler.Result, error) {
	res, err := c.reconciler.Devices(ctx, first, second)
	if err != nil {
		return nil, err
	}
	c.hooks.triggerMerged(res.DeviceID, res)
	return res, nil
}

// MergeMaps reconciles every id present in both maps. Distinct pairs run in
// parallel; a failed pair does not stop the others and is reported as a
// MergeError in the joined error.
func (c *client) MergeMaps(ctx context.Context, first, second map[string]*device.Device) (*MapResult, error) {
	result := &MapResult{Results: make(map[string]*reconciler.Result)}

	var paired []string
	for id := range first {
		if _, ok := second[id]; ok {
			paired = append(paired, id)
		} else {
			result.Unpaired.First = append(result.Unpaired.First, id)
		}
	}
	for id := range second {
		if _, ok := first[id]; !ok {
			result.Unpaired.Second = append(result.Unpaired.Second, id)
		}
	}
	slices.Sort(paired)
	slices.Sort(result.Unpaired.First)
	slices.Sort(result.Unpaired.Second)

	for _, id := range result.Unpaired.First {
		c.hooks.triggerUnpaired(id, provenance.SideFirst)
	}
	for _, id := range result.Unpaired.Second {
		c.hooks.triggerUnpaired(id, provenance.SideSecond)
	}

	logger := logging.FromContext(ctx)
	logger.Debug().
		Int("paired", len(paired)).
		Int("unpaired", len(result.Unpaired.First)+len(result.Unpaired.Second)).
		Msg("Reconciling device maps")

	var mu sync.Mutex
	p := pool.New().WithContext(ctx).WithMaxGoroutines(c.options.maxConcurrency)
	for _, id := range paired {
		p.Go(func(ctx context.Context) error {
			res, err := c.MergeDevices(logging.WithDevice(ctx, id), first[id], second[id])
			if err != nil {
				logger.Warn().Err(err).Str("device_id", id).Msg("Device reconciliation failed")
				return pkgerrors.NewMergeError(id, err)
			}
			mu.Lock()
			result.Results[id] = res
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// MergeSources refreshes both sources concurrently, then reconciles their
// devices. A refresh failure is returned as classified by sources.Refresh.
func (c *client) MergeSources(ctx context.Context, first, second sources.Source) (*MapResult, error) {
	if first == nil || second == nil {
		return nil, &pkgerrors.ValidationError{
			Field:   "source",
			Message: "cannot merge a nil source",
		}
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, src := range []sources.Source{first, second} {
		p.Go(func(ctx context.Context) error {
			return sources.Refresh(ctx, src, c.options.refreshOpts...)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	defer func() {
		err := errors.Join(first.Cleanup(), second.Cleanup())
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("Source cleanup failed")
		}
	}()

	return c.MergeMaps(ctx, first.Devices(), second.Devices())
}
