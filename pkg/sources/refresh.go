package sources

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/devmerge/pkg/constants"
	"github.com/agentstation/devmerge/pkg/errors"
	"github.com/agentstation/devmerge/pkg/logging"
)

// Options configures Refresh.
type Options struct {
	// ReuseConfig is set when the source borrows credentials from another
	// integration; a rejected signature then means that integration has not
	// finished its own login yet, not that the user must log in again.
	ReuseConfig bool

	// Timeout bounds a single Fetch (0 disables).
	Timeout time.Duration
}

// Option configures Refresh.
type Option func(*Options)

// WithReuseConfig marks the source as using borrowed credentials.
func WithReuseConfig(reuse bool) Option {
	return func(o *Options) {
		o.ReuseConfig = reuse
	}
}

// WithTimeout bounds the fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// Refresh fetches src and classifies any failure, see ClassifyRefreshError.
func Refresh(ctx context.Context, src Source, opts ...Option) error {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	ctx = logging.WithSource(ctx, src.ID().String())
	err := ClassifyRefreshError(src.ID(), src.Fetch(ctx), o.ReuseConfig)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("Device refresh failed")
	}
	return err
}

// ClassifyRefreshError maps a failed refresh to a typed error. A rejected
// signature becomes a NotReadyError when credentials are reused from another
// integration, and a ReauthRequiredError otherwise. Other errors, and nil,
// are returned unchanged.
func ClassifyRefreshError(id ID, err error, reuseConfig bool) error {
	if err == nil {
		return nil
	}
	if !strings.Contains(strings.ToLower(err.Error()), constants.SignInvalidMarker) {
		return err
	}
	if reuseConfig {
		return errors.NewNotReadyError(id.String(), "credentials shared with another integration were rejected", err)
	}
	return errors.NewReauthRequiredError(id.String(), "credentials were rejected", err)
}
