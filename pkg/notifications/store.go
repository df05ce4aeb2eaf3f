package notifications

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/insurdash/dashboard/pkg/async"
	"github.com/insurdash/dashboard/pkg/broadcast"
	"github.com/insurdash/dashboard/pkg/cache"
	"github.com/insurdash/dashboard/pkg/logger"
)

const (
	// DefaultMatchWindow bounds the createdAt distance between a provisional
	// push record and the pull record that replaces it.
	DefaultMatchWindow = 2 * time.Minute

	provisionalPrefix   = "push-"
	provisionalCapacity = 512
)

// Confirmation resolves once the server has acknowledged a mark-read.
type Confirmation = async.Future[struct{}]

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for the Store.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfirmer sets where read confirmations are sent. Defaults to NoOpConfirmer.
func WithConfirmer(c Confirmer) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.confirmer = c
		}
	}
}

// WithDeliverer sets where pushed records are forwarded after ingestion.
func WithDeliverer(d Deliverer) StoreOption {
	return func(s *Store) {
		if d != nil {
			s.deliverer = d
		}
	}
}

// WithClock replaces the wall clock used for missing timestamps.
func WithClock(c clockwork.Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMatchWindow sets how far apart in createdAt a provisional push record
// and a pull record with the same text may be and still be treated as one.
func WithMatchWindow(d time.Duration) StoreOption {
	return func(s *Store) {
		if d >= 0 {
			s.matchWindow = d
		}
	}
}

// Store holds one identity's notification records. Every mutation is
// serialized and republishes a fresh State.
type Store struct {
	mu          sync.Mutex
	records     map[string]*Record
	provisional *cache.LRU[fingerprint, []string]
	pending     map[uint64]*Confirmation
	seq         uint64
	version     uint64
	state       State
	closed      bool

	baseCtx context.Context
	cancel  context.CancelFunc
	states  *broadcast.MemoryBroadcaster[State]

	confirmer   Confirmer
	deliverer   Deliverer
	clock       clockwork.Clock
	matchWindow time.Duration
	logger      *slog.Logger
}

// NewStore returns an empty, open store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		records:     make(map[string]*Record),
		provisional: cache.New[fingerprint, []string](provisionalCapacity),
		pending:     make(map[uint64]*Confirmation),
		states:      broadcast.NewMemoryBroadcaster[State](1, broadcast.WithOverflow(broadcast.DropOldest)),
		confirmer:   NoOpConfirmer{},
		deliverer:   NoOpDeliverer{},
		clock:       clockwork.NewRealClock(),
		matchWindow: DefaultMatchWindow,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	s.state = State{Records: []Record{}}
	return s
}

// State returns the latest published state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe streams states until ctx is done or the store closes. A slow
// subscriber skips intermediate states but always ends on the latest one.
func (s *Store) Subscribe(ctx context.Context) broadcast.Subscriber[State] {
	return s.states.Subscribe(ctx)
}

// IngestSnapshot merges a full pull snapshot. Records absent from the
// snapshot are kept, and records without an id are skipped.
func (s *Store) IngestSnapshot(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	now := s.clock.Now()
	changed := false
	skipped := 0
	var confirm []string

	for i := range records {
		incoming := records[i]
		if incoming.ID == "" {
			skipped++
			continue
		}
		incoming.normalize(OriginPull, now)

		if existing, ok := s.records[incoming.ID]; ok {
			changed = existing.merge(&incoming) || changed
			continue
		}

		if existing := s.matchProvisionalLocked(&incoming); existing != nil {
			s.rekeyLocked(ctx, existing, incoming.ID)
			existing.merge(&incoming)
			// A read the user made before the record had a server id was
			// never sent anywhere.
			if existing.PendingConfirmation && !incoming.Read {
				confirm = append(confirm, existing.ID)
			}
			changed = true
			continue
		}

		s.insertLocked(incoming)
		changed = true
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "snapshot ingested",
		logger.Count(len(records)-skipped),
		logger.Origin(string(OriginPull)),
	)

	if skipped > 0 {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "skipped snapshot records without id",
			logger.Count(skipped),
			logger.Error(ErrInvalidRecord),
		)
	}

	if changed {
		s.publishLocked(ctx)
	}

	for _, id := range confirm {
		s.confirmLocked(ctx, id, s.confirmer.MarkRead)
	}

	return nil
}

// IngestEvent merges one pushed record and forwards it to the deliverer.
// An event without an id first matches a record the last snapshot already
// brought in by text and createdAt; otherwise it is stored under a
// provisional id until a pull snapshot supplies the real one.
func (s *Store) IngestEvent(ctx context.Context, rec Record) error {
	if rec.Title == "" && rec.Message == "" {
		return fmt.Errorf("%w: push event has neither title nor message", ErrInvalidRecord)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}

	rec.normalize(OriginPush, s.clock.Now())

	var stored Record
	switch existing, known := s.records[rec.ID]; {
	case known:
		if existing.merge(&rec) {
			s.publishLocked(ctx)
		}
		stored = *existing
	case rec.ID == "":
		// The server copy may already be here from an earlier snapshot.
		if match := s.matchKnownLocked(&rec); match != nil {
			if match.merge(&rec) {
				s.publishLocked(ctx)
			}
			stored = *match
			break
		}
		rec.ID = provisionalPrefix + uuid.NewString()
		rec.Provisional = true
		stored = *s.insertLocked(rec)

		fp := rec.fingerprint()
		ids, _ := s.provisional.Get(fp)
		s.provisional.Put(fp, append(ids, rec.ID))
		s.publishLocked(ctx)
	default:
		stored = *s.insertLocked(rec)
		s.publishLocked(ctx)
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "notification ingested",
		logger.NotificationID(stored.ID),
		logger.Origin(string(OriginPush)),
	)
	s.mu.Unlock()

	if err := s.deliverer.Deliver(ctx, stored); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver pushed notification",
			logger.NotificationID(stored.ID),
			logger.Error(err),
		)
	}
	return nil
}

// MarkRead marks id read immediately and confirms it with the server in the
// background. A failed confirmation is logged and the local read state
// stands. Marking a confirmed record again is a no-op; marking a record whose
// confirmation is still pending sends it again.
func (s *Store) MarkRead(ctx context.Context, id string) (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}

	if rec.Read && !rec.PendingConfirmation {
		return async.Resolved(struct{}{}, nil), nil
	}

	rec.Read = true
	rec.PendingConfirmation = true
	s.publishLocked(ctx)

	if rec.Provisional {
		// The server does not know this id yet; the confirmation is sent
		// once a snapshot re-keys the record.
		return async.Resolved(struct{}{}, nil), nil
	}

	return s.confirmLocked(ctx, id, s.confirmer.MarkRead), nil
}

// MarkAllRead marks every record read and sends one batched confirmation,
// even when nothing was unread.
func (s *Store) MarkAllRead(ctx context.Context) (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	ids := make([]string, 0, len(s.records))
	for id, rec := range s.records {
		if rec.Read && !rec.PendingConfirmation {
			continue
		}
		rec.Read = true
		rec.PendingConfirmation = true
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		s.publishLocked(ctx)
	}

	return s.confirmLocked(ctx, "", func(ctx context.Context, _ string) error {
		return s.confirmer.MarkAllRead(ctx)
	}, ids...), nil
}

// Close stops ingestion, cancels in-flight confirmations and waits for them,
// then closes every subscriber. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	futures := make([]*Confirmation, 0, len(s.pending))
	for _, f := range s.pending {
		futures = append(futures, f)
	}
	s.mu.Unlock()

	s.cancel()
	_, _ = async.WaitAll(futures...)

	s.provisional.Clear()
	return s.states.Close()
}

// confirmLocked starts a background confirmation. On success the pending
// flag is cleared on every record in settles (or on id when settles is
// empty). Must be called with s.mu held.
func (s *Store) confirmLocked(ctx context.Context, id string, call func(context.Context, string) error, settles ...string) *Confirmation {
	if len(settles) == 0 && id != "" {
		settles = []string{id}
	}

	s.seq++
	key := s.seq
	attrs := []slog.Attr{logger.NotificationID(id), logger.Count(len(settles))}

	// Confirmations outlive the request that started them and end with the store.
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stopWatch := context.AfterFunc(s.baseCtx, cancel)

	f := async.Async(callCtx, id, func(ctx context.Context, id string) (struct{}, error) {
		defer stopWatch()
		defer cancel()

		err := call(ctx, id)

		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, key)

		if err != nil {
			err = fmt.Errorf("%w: %w", ErrConfirmationFailed, err)
			level := slog.LevelWarn
			if errors.Is(err, context.Canceled) {
				level = slog.LevelDebug
			}
			s.logger.LogAttrs(ctx, level, "read confirmation failed, keeping local state",
				append(attrs, logger.Error(err))...)
			return struct{}{}, err
		}

		if s.closed {
			return struct{}{}, nil
		}
		changed := false
		for _, rid := range settles {
			if rec, ok := s.records[rid]; ok && rec.PendingConfirmation {
				rec.PendingConfirmation = false
				changed = true
			}
		}
		if changed {
			s.publishLocked(ctx)
		}
		return struct{}{}, nil
	})

	s.pending[key] = f
	return f
}

// Must be called with s.mu held.
func (s *Store) insertLocked(rec Record) *Record {
	s.seq++
	rec.seq = s.seq
	stored := &rec
	s.records[rec.ID] = stored
	return stored
}

// matchKnownLocked finds a server-keyed record with the same text whose
// createdAt lies within the match window of incoming.
func (s *Store) matchKnownLocked(incoming *Record) *Record {
	fp := incoming.fingerprint()
	var best *Record
	for _, rec := range s.records {
		if rec.Provisional || rec.fingerprint() != fp {
			continue
		}
		d := absDuration(rec.CreatedAt.Sub(incoming.CreatedAt))
		if d > s.matchWindow {
			continue
		}
		if best == nil || d < absDuration(best.CreatedAt.Sub(incoming.CreatedAt)) {
			best = rec
		}
	}
	return best
}

// matchProvisionalLocked finds a provisional record with the same text whose
// createdAt lies within the match window of incoming.
func (s *Store) matchProvisionalLocked(incoming *Record) *Record {
	ids, ok := s.provisional.Peek(incoming.fingerprint())
	if !ok {
		return nil
	}
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok || !rec.Provisional {
			continue
		}
		if absDuration(rec.CreatedAt.Sub(incoming.CreatedAt)) <= s.matchWindow {
			return rec
		}
	}
	return nil
}

// Must be called with s.mu held.
func (s *Store) rekeyLocked(ctx context.Context, rec *Record, id string) {
	old := rec.ID
	fp := rec.fingerprint()
	if ids, ok := s.provisional.Peek(fp); ok {
		ids = slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == old })
		if len(ids) == 0 {
			s.provisional.Remove(fp)
		} else {
			s.provisional.Put(fp, ids)
		}
	}

	delete(s.records, old)
	rec.ID = id
	rec.Provisional = false
	s.records[id] = rec

	s.logger.LogAttrs(ctx, slog.LevelDebug, "provisional notification reconciled",
		logger.NotificationID(id),
		slog.String("provisional_id", old),
	)
}

// publishLocked recomputes the state from the records and broadcasts it.
// Must be called with s.mu held.
func (s *Store) publishLocked(ctx context.Context) {
	records := make([]Record, 0, len(s.records))
	unread := 0
	for _, rec := range s.records {
		records = append(records, *rec)
		if !rec.Read {
			unread++
		}
	}
	slices.SortFunc(records, func(a, b Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	s.version++
	s.state = State{Records: records, UnreadCount: unread, Version: s.version}
	_ = s.states.Broadcast(ctx, broadcast.Message[State]{Data: s.state})
}
