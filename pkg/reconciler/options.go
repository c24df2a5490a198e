package reconciler

import (
	"github.com/agentstation/utc"

	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/store"
)

type options struct {
	remote    store.Store
	key       string
	now       func() utc.Time
	overwrite bool
}

func defaultOptions() *options {
	return &options{
		now: utc.Now,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRemote pushes committed collections to key in remote. Without a remote
// the reconciler only maintains the local mirror.
func WithRemote(remote store.Store, key string) Option {
	return func(o *options) error {
		if remote == nil {
			return &errors.ValidationError{Field: "remote", Message: "cannot be nil"}
		}
		if key == "" {
			return &errors.ValidationError{Field: "key", Message: "cannot be empty"}
		}
		o.remote = remote
		o.key = key
		return nil
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() utc.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

// WithOverwritePush reads the current remote version right before every push
// instead of reusing the version from the last successful read or write.
// Concurrent edits by other writers are then overwritten.
func WithOverwritePush(enabled bool) Option {
	return func(o *options) error {
		o.overwrite = enabled
		return nil
	}
}
