package push

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/insurdash/dashboard/pkg/backoff"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/statemachine"
)

// ConnState is the push connection lifecycle state.
type ConnState string

const (
	StateConnecting   ConnState = "CONNECTING"
	StateConnected    ConnState = "CONNECTED"
	StateReconnecting ConnState = "RECONNECTING"
	StateClosed       ConnState = "CLOSED"
)

type connSignal string

const (
	signalSubscribed connSignal = "subscribed"
	signalLost       connSignal = "lost"
	signalShutdown   connSignal = "shutdown"
)

// Ingester receives decoded push records.
type Ingester interface {
	IngestEvent(ctx context.Context, rec notifications.Record) error
}

// StateHook observes connection state transitions.
type StateHook func(from, to ConnState)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger for the Adapter.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithBackoff sets the reconnect delay policy. Defaults to backoff.Default().
func WithBackoff(s backoff.Strategy) Option {
	return func(a *Adapter) {
		if s != nil {
			a.backoff = s
		}
	}
}

// WithClock replaces the clock used for reconnect waits.
func WithClock(c clockwork.Clock) Option {
	return func(a *Adapter) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithStateHook registers fn to run on every state transition.
func WithStateHook(fn StateHook) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.hooks = append(a.hooks, fn)
		}
	}
}

// Adapter keeps one identity subscribed to its push topics and forwards
// every decoded message to the store. Delivery is at-most-once: messages
// sent while disconnected are lost and recovered by the pull poller.
type Adapter struct {
	source  Source
	sink    Ingester
	topics  []string
	backoff backoff.Strategy
	clock   clockwork.Clock
	logger  *slog.Logger
	hooks   []StateHook
	machine *statemachine.Machine[ConnState, connSignal]
}

func NewAdapter(source Source, sink Ingester, topics []string, opts ...Option) *Adapter {
	a := &Adapter{
		source:  source,
		sink:    sink,
		topics:  topics,
		backoff: backoff.Default(),
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.machine = statemachine.MustNew(StateConnecting,
		statemachine.WithTransition(StateConnecting, StateConnected, signalSubscribed),
		statemachine.WithTransition(StateConnecting, StateReconnecting, signalLost),
		statemachine.WithTransition(StateConnected, StateReconnecting, signalLost),
		statemachine.WithTransition(StateReconnecting, StateConnected, signalSubscribed),
		statemachine.WithTransition(StateReconnecting, StateReconnecting, signalLost),
		statemachine.WithTransition(StateConnecting, StateClosed, signalShutdown),
		statemachine.WithTransition(StateConnected, StateClosed, signalShutdown),
		statemachine.WithTransition(StateReconnecting, StateClosed, signalShutdown),
		statemachine.WithObserver(a.observe),
	)
	return a
}

// State returns the current connection state.
func (a *Adapter) State() ConnState {
	return a.machine.Current()
}

// Run subscribes and keeps reconnecting until ctx is cancelled, then moves
// to CLOSED and returns nil. An adapter cannot be restarted after Run returns.
func (a *Adapter) Run(ctx context.Context) error {
	attempt := 0
	for ctx.Err() == nil {
		sub, err := a.source.Subscribe(ctx, a.topics...)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			attempt++
			a.lost(ctx, attempt, err)
			if !a.sleep(ctx, a.backoff.NextInterval(attempt)) {
				break
			}
			continue
		}

		attempt = 0
		a.fire(ctx, signalSubscribed)
		a.consume(ctx, sub)
		_ = sub.Close()

		if ctx.Err() != nil {
			break
		}
		attempt++
		a.lost(ctx, attempt, errors.New("subscription closed"))
		if !a.sleep(ctx, a.backoff.NextInterval(attempt)) {
			break
		}
	}

	a.fire(context.WithoutCancel(ctx), signalShutdown)
	return nil
}

func (a *Adapter) consume(ctx context.Context, sub Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			a.handle(ctx, msg)
		}
	}
}

func (a *Adapter) handle(ctx context.Context, msg Message) {
	rec, err := DecodePayload(msg.Topic, msg.Payload)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "dropping undecodable push message",
			logger.Topic(msg.Topic),
			logger.Error(err),
		)
		return
	}

	if err := a.sink.IngestEvent(ctx, rec); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, notifications.ErrStoreClosed) {
			level = slog.LevelDebug
		}
		a.logger.LogAttrs(ctx, level, "push event not ingested",
			logger.Topic(msg.Topic),
			logger.NotificationID(rec.ID),
			logger.Error(err),
		)
	}
}

func (a *Adapter) lost(ctx context.Context, attempt int, err error) {
	if !errors.Is(err, ErrTransportUnavailable) {
		err = errors.Join(ErrTransportUnavailable, err)
	}
	a.logger.LogAttrs(ctx, slog.LevelWarn, "push channel unavailable, relying on pull until it returns",
		logger.Topics(a.topics),
		logger.Attempt(attempt),
		logger.Error(err),
	)
	a.fire(ctx, signalLost)
}

// sleep waits d or until ctx is done, reporting whether the wait completed.
func (a *Adapter) sleep(ctx context.Context, d time.Duration) bool {
	timer := a.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func (a *Adapter) fire(ctx context.Context, sig connSignal) {
	if err := a.machine.Fire(ctx, sig); err != nil {
		a.logger.LogAttrs(ctx, slog.LevelError, "unexpected push state transition",
			logger.ConnState(string(a.machine.Current())),
			logger.Event(string(sig)),
			logger.Error(err),
		)
	}
}

func (a *Adapter) observe(ctx context.Context, from, to ConnState, sig connSignal) {
	a.logger.LogAttrs(ctx, slog.LevelInfo, "push connection state changed",
		logger.ConnState(string(to)),
		slog.String("from", string(from)),
		logger.Event(string(sig)),
	)
	for _, h := range a.hooks {
		h(from, to)
	}
}
