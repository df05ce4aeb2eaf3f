package session

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/insurdash/dashboard/pkg/push"
)

type options struct {
	backend BackendFactory
	source  push.Source
	clock   clockwork.Clock
	logger  *slog.Logger
	hooks   []push.StateHook
}

// Option configures sessions.
type Option func(*options)

// WithBackend sets the REST backend. Required.
func WithBackend(f BackendFactory) Option {
	return func(o *options) {
		o.backend = f
	}
}

// WithSource sets the push transport. Without one the session runs pull-only.
func WithSource(s push.Source) Option {
	return func(o *options) {
		o.source = s
	}
}

// WithClock replaces the clock shared by the store, poller, alert queue and
// push adapter.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the base logger. Sessions add user and role attributes.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPushStateHook observes push connection transitions of every session.
func WithPushStateHook(fn push.StateHook) Option {
	return func(o *options) {
		if fn != nil {
			o.hooks = append(o.hooks, fn)
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
