// Package devmerge reconciles the two records a home-automation bridge keeps
// for every physical device: one fetched through the local sharing API and
// one fetched through the cloud OpenAPI. Both records are merged in place so
// that afterwards they share the same datapoint tables.
//
// The Client wraps the reconciler with pairing of whole device maps,
// parallel reconciliation of distinct pairs and event hooks.
//
// Example usage:
//
//	dm, err := devmerge.New(devmerge.WithReconcilerOptions(reconciler.WithProvenance(true)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dm.OnDeviceMerged(func(id string, res *reconciler.Result) {
//	    log.Printf("%s: %d diagnostics", id, len(res.Diagnostics))
//	})
//
//	result, err := dm.MergeMaps(ctx, sharingDevices, cloudDevices)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package devmerge

import (
	"context"

	"github.com/agentstation/devmerge/pkg/device"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/reconciler"
	"github.com/agentstation/devmerge/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Merger reconciles device records.
type Merger interface {
	// MergeDevices reconciles a single pair in place.
	MergeDevices(ctx context.Context, first, second *device.Device) (*reconciler.Result, error)

	// MergeMaps reconciles every device id present in both maps.
	MergeMaps(ctx context.Context, first, second map[string]*device.Device) (*MapResult, error)

	// MergeSources refreshes both sources and reconciles their devices.
	MergeSources(ctx context.Context, first, second sources.Source) (*MapResult, error)
}

// Client reconciles devices and notifies registered hooks.
type Client interface {

	// Merger handles reconciliation
	Merger

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// reconciler is shared by all pairs; distinct pairs may run in parallel
	reconciler reconciler.Reconciler

	hooks *hooks
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	options, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	r, err := reconciler.New(options.reconcilerOpts...)
	if err != nil {
		return nil, &errors.ConfigError{Component: "reconciler", Message: "invalid reconciler options", Err: err}
	}

	return &client{
		options:    options,
		reconciler: r,
		hooks:      newHooks(),
	}, nil
}
