package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/insurdash/dashboard/pkg/alerts"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/pull"
	"github.com/insurdash/dashboard/pkg/push"
)

// PushDisabled is reported when the session runs without a push transport.
const PushDisabled push.ConnState = "DISABLED"

// Health summarizes both delivery channels of a session.
type Health struct {
	Push push.ConnState
	Pull pull.Status
}

// Session owns every component scoped to one identity: the store, the
// alert queue, the push adapter and the pull poller.
type Session struct {
	idMu     sync.RWMutex
	identity Identity
	backend  *boundBackend
	factory  BackendFactory
	store    *notifications.Store
	alerts   *alerts.Queue
	poller   *pull.Poller
	push     *push.Adapter
	logger   *slog.Logger

	cancel    context.CancelFunc
	group     *errgroup.Group
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Start builds the components for id and starts the adapters. The session
// outlives ctx; call Close to tear it down.
func Start(ctx context.Context, id Identity, cfg Config, opts ...Option) (*Session, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	if o.backend == nil {
		return nil, ErrNoBackend
	}

	log := o.logger.With(logger.UserID(id.UserID), logger.Role(id.Role))
	backend := &boundBackend{backend: o.backend(id)}

	queue := alerts.NewQueue(cfg.Alerts,
		alerts.WithClock(o.clock),
		alerts.WithLogger(log.With(logger.Component("alerts"))),
	)
	store := notifications.NewStore(
		notifications.WithConfirmer(backend),
		notifications.WithDeliverer(queue),
		notifications.WithClock(o.clock),
		notifications.WithLogger(log.With(logger.Component("store"))),
	)

	s := &Session{
		identity: id,
		backend:  backend,
		factory:  o.backend,
		store:    store,
		alerts:   queue,
		logger:   log,
		poller: pull.NewPoller(backend, store, cfg.Pull,
			pull.WithClock(o.clock),
			pull.WithLogger(log.With(logger.Component("pull"))),
		),
	}

	if o.source != nil {
		pushOpts := []push.Option{
			push.WithBackoff(cfg.Push.Backoff),
			push.WithClock(o.clock),
			push.WithLogger(log.With(logger.Component("push"))),
		}
		// Push delivery is at-most-once: whatever was published while the
		// channel was down is only recovered by a pull.
		pushOpts = append(pushOpts, push.WithStateHook(func(from, to push.ConnState) {
			if from == push.StateReconnecting && to == push.StateConnected {
				_ = s.Refresh()
			}
		}))
		for _, h := range o.hooks {
			pushOpts = append(pushOpts, push.WithStateHook(h))
		}
		topics := push.Topics(id.UserID, id.Role, cfg.Push.RoleTopics)
		s.push = push.NewAdapter(o.source, store, topics, pushOpts...)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.group, runCtx = errgroup.WithContext(runCtx)

	s.group.Go(func() error { return s.poller.Run(runCtx) })
	if s.push != nil {
		s.group.Go(func() error { return s.push.Run(runCtx) })
	}

	log.LogAttrs(ctx, slog.LevelInfo, "notification session started",
		slog.Bool("push", s.push != nil),
	)
	return s, nil
}

func (s *Session) Identity() Identity {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.identity
}

// Rebind swaps the credentials of a running session. Fetches and
// confirmations issued afterwards use the new token; the store and both
// adapters keep running.
func (s *Session) Rebind(ctx context.Context, token string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := s.identity
	id.Token = token
	if err := id.Validate(); err != nil {
		return err
	}
	s.backend.rebind(s.factory(id))
	s.identity = id
	s.logger.LogAttrs(ctx, slog.LevelInfo, "notification session token refreshed")
	return nil
}

func (s *Session) sameUser(id Identity) bool {
	cur := s.Identity()
	return cur.UserID == id.UserID && cur.Role == id.Role
}

func (s *Session) Store() *notifications.Store { return s.store }
func (s *Session) Alerts() *alerts.Queue { return s.alerts }
func (s *Session) Poller() *pull.Poller { return s.poller }

// Refresh asks the poller for an immediate fetch. It returns
// ErrSessionClosed once the session is torn down.
func (s *Session) Refresh() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.poller.Refresh()
	return nil
}

// Health reports the push connection state and the last pull outcome.
func (s *Session) Health() Health {
	h := Health{Push: PushDisabled, Pull: s.poller.Status()}
	if s.push != nil {
		h.Push = s.push.State()
	}
	return h
}

// Close stops the adapters, waits for them to return and only then closes
// the store and the alert queue, so nothing is ingested after Close.
// Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		runErr := s.group.Wait()

		s.closeErr = errors.Join(
			runErr,
			s.store.Close(),
			s.alerts.Close(),
		)
		s.logger.LogAttrs(context.Background(), slog.LevelInfo, "notification session closed")
	})
	return s.closeErr
}
