package devmerge

import (
	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/reconciler"
	"github.com/agentstation/devmerge/pkg/sources"
)

// options holds the client configuration.
type options struct {
	reconcilerOpts []reconciler.Option
	refreshOpts    []sources.Option
	maxConcurrency int
}

// Option is a function that configures a Client instance.
type Option func(*options) error

func defaults() *options {
	return &options{
		maxConcurrency: constants.MaxConcurrentMerges,
	}
}

// apply applies the given options to the options.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithReconcilerOptions configures the reconciler used for every pair.
func WithReconcilerOptions(opts ...reconciler.Option) Option {
	return func(o *options) error {
		o.reconcilerOpts = append(o.reconcilerOpts, opts...)
		return nil
	}
}

// WithRefreshOptions configures how MergeSources refreshes its sources.
func WithRefreshOptions(opts ...sources.Option) Option {
	return func(o *options) error {
		o.refreshOpts = append(o.refreshOpts, opts...)
		return nil
	}
}

// WithMaxConcurrency limits how many pairs are reconciled at once.
func WithMaxConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{
				Field:   "max_concurrency",
				Value:   n,
				Message: "must be at least 1",
			}
		}
		o.maxConcurrency = n
		return nil
	}
}
