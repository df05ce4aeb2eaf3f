package alerts

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/insurdash/dashboard/pkg/broadcast"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
)

// DefaultTTL is how long an alert stays visible when Config.TTL is unset.
const DefaultTTL = 5 * time.Second

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger for the Queue.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithClock replaces the clock driving expiry timers.
func WithClock(c clockwork.Clock) Option {
	return func(q *Queue) {
		if c != nil {
			q.clock = c
		}
	}
}

type entry struct {
	alert Alert
	timer clockwork.Timer
}

// Queue is an ordered list of alerts, each removed by its own timer or by
// an explicit Dismiss. Queue implements notifications.Deliverer.
type Queue struct {
	mu      sync.Mutex
	entries []*entry
	closed  bool

	ttl    time.Duration
	max    int
	clock  clockwork.Clock
	logger *slog.Logger
	lists  *broadcast.MemoryBroadcaster[[]Alert]
}

var _ notifications.Deliverer = (*Queue)(nil)

// NewQueue returns an empty queue.
func NewQueue(cfg Config, opts ...Option) *Queue {
	q := &Queue{
		ttl:    cfg.TTL,
		max:    cfg.MaxAlerts,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
		lists:  broadcast.NewMemoryBroadcaster[[]Alert](1, broadcast.WithOverflow(broadcast.DropOldest)),
	}
	if q.ttl <= 0 {
		q.ttl = DefaultTTL
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Deliver enqueues an alert for a pushed record.
func (q *Queue) Deliver(ctx context.Context, rec notifications.Record) error {
	a, err := q.Enqueue(FromRecord(rec))
	if err != nil {
		return err
	}
	q.logger.LogAttrs(ctx, slog.LevelDebug, "alert shown",
		logger.AlertID(a.DisplayID),
		logger.NotificationID(a.NotificationID),
	)
	return nil
}

// Enqueue appends a, assigning its DisplayID and ExpiresAt, and arms its
// expiry timer. When the queue is full the oldest alert is dropped.
func (q *Queue) Enqueue(a Alert) (Alert, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return Alert{}, ErrQueueClosed
	}

	a.DisplayID = uuid.NewString()
	a.ExpiresAt = q.clock.Now().Add(q.ttl)

	if q.max > 0 && len(q.entries) >= q.max {
		oldest := q.entries[0]
		oldest.timer.Stop()
		q.entries = q.entries[1:]
	}

	id := a.DisplayID
	q.entries = append(q.entries, &entry{
		alert: a,
		timer: q.clock.AfterFunc(q.ttl, func() { q.expire(id) }),
	})
	q.publishLocked()

	return a, nil
}

// Dismiss removes the alert early and stops its timer.
func (q *Queue) Dismiss(displayID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	e := q.removeLocked(displayID)
	if e == nil {
		return ErrAlertNotFound
	}
	e.timer.Stop()
	q.publishLocked()
	return nil
}

// List returns the visible alerts, oldest first.
func (q *Queue) List() []Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Subscribe streams the alert list after every change.
func (q *Queue) Subscribe(ctx context.Context) broadcast.Subscriber[[]Alert] {
	return q.lists.Subscribe(ctx)
}

// Close stops every timer and drops all alerts. Idempotent.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for _, e := range q.entries {
		e.timer.Stop()
	}
	q.entries = nil
	q.mu.Unlock()

	return q.lists.Close()
}

func (q *Queue) expire(displayID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	if q.removeLocked(displayID) != nil {
		q.publishLocked()
	}
}

// Must be called with q.mu held.
func (q *Queue) removeLocked(displayID string) *entry {
	i := slices.IndexFunc(q.entries, func(e *entry) bool { return e.alert.DisplayID == displayID })
	if i < 0 {
		return nil
	}
	e := q.entries[i]
	q.entries = slices.Delete(q.entries, i, i+1)
	return e
}

// Must be called with q.mu held.
func (q *Queue) snapshotLocked() []Alert {
	out := make([]Alert, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.alert
	}
	return out
}

// Must be called with q.mu held.
func (q *Queue) publishLocked() {
	_ = q.lists.Broadcast(context.Background(), broadcast.Message[[]Alert]{Data: q.snapshotLocked()})
}
