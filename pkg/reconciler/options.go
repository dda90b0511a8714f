package reconciler

import (
	"github.com/agentstation/devmerge/pkg/authority"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/schema"
)

// options configures a reconciler.
type options struct {
	resolver   authority.Resolver
	aligner    schema.Aligner
	fixers     schema.Pipeline
	tracker    provenance.Tracker
	tracking   bool
	changesets bool
}

func defaultOptions() *options {
	return &options{
		resolver:   authority.New(),
		aligner:    schema.NewAligner(),
		fixers:     schema.DefaultFixers(),
		changesets: true,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if options.tracker == nil {
		options.tracker = provenance.NewTracker(options.tracking)
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithResolver sets the type plausibility resolver.
func WithResolver(resolver authority.Resolver) Option {
	return func(o *options) error {
		if resolver == nil {
			return &errors.ValidationError{
				Field:   "resolver",
				Message: "cannot be nil",
			}
		}
		o.resolver = resolver
		return nil
	}
}

// WithAligner sets the value-descriptor aligner.
func WithAligner(aligner schema.Aligner) Option {
	return func(o *options) error {
		if aligner == nil {
			return &errors.ValidationError{
				Field:   "aligner",
				Message: "cannot be nil",
			}
		}
		o.aligner = aligner
		return nil
	}
}

// WithFixers replaces the schema normalization pipeline. No fixers is valid.
func WithFixers(fixers ...schema.Fixer) Option {
	return func(o *options) error {
		o.fixers = schema.Pipeline(fixers)
		return nil
	}
}

// WithProvenance enables decision tracking.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.tracking = enabled
		return nil
	}
}

// WithTracker records decisions into an existing tracker, e.g. one shared
// by several reconcilers.
func WithTracker(tracker provenance.Tracker) Option {
	return func(o *options) error {
		if tracker == nil {
			return &errors.ValidationError{
				Field:   "tracker",
				Message: "cannot be nil",
			}
		}
		o.tracker = tracker
		o.tracking = true
		return nil
	}
}

// WithChangesets enables per-device changesets in the Result.
func WithChangesets(enabled bool) Option {
	return func(o *options) error {
		o.changesets = enabled
		return nil
	}
}
