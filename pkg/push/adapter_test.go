package push_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insurdash/dashboard/pkg/backoff"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/push"
)

type stateLog struct {
	mu     sync.Mutex
	states []push.ConnState
}

func (l *stateLog) hook(_, to push.ConnState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.states); n > 0 && l.states[n-1] == to {
		return
	}
	l.states = append(l.states, to)
}

func (l *stateLog) get() []push.ConnState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]push.ConnState(nil), l.states...)
}

type adapterHarness struct {
	source  *push.MemorySource
	store   *notifications.Store
	clock   *clockwork.FakeClock
	adapter *push.Adapter
	states  *stateLog
	cancel  context.CancelFunc
	done    chan error
	once    sync.Once
}

func startAdapter(t *testing.T, topics []string) *adapterHarness {
	t.Helper()

	h := &adapterHarness{
		source: push.NewMemorySource(),
		store:  notifications.NewStore(notifications.WithLogger(logger.Discard())),
		clock:  clockwork.NewFakeClock(),
		states: &stateLog{},
		done:   make(chan error, 1),
	}
	t.Cleanup(func() { _ = h.store.Close() })

	h.adapter = push.NewAdapter(h.source, h.store, topics,
		push.WithClock(h.clock),
		push.WithBackoff(backoff.Constant(time.Second)),
		push.WithLogger(logger.Discard()),
		push.WithStateHook(h.states.hook),
	)

	var ctx context.Context
	ctx, h.cancel = context.WithCancel(context.Background())
	go func() { h.done <- h.adapter.Run(ctx) }()
	t.Cleanup(h.stop)

	h.waitState(t, push.StateConnected)
	return h
}

func (h *adapterHarness) stop() {
	h.once.Do(func() {
		h.cancel()
		select {
		case <-h.done:
		case <-time.After(time.Second):
		}
	})
}

func (h *adapterHarness) waitState(t *testing.T, want push.ConnState) {
	t.Helper()
	require.Eventually(t, func() bool { return h.adapter.State() == want }, time.Second, 5*time.Millisecond)
}

func (h *adapterHarness) waitBackoff(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
}

func publish(t *testing.T, src *push.MemorySource, topic string, rec notifications.Record) {
	t.Helper()
	b, err := push.EncodePayload(rec)
	require.NoError(t, err)
	require.NoError(t, src.Publish(context.Background(), topic, b))
}

func TestAdapter_ForwardsMessages(t *testing.T) {
	topics := push.Topics("ad1", "admin", nil)
	h := startAdapter(t, topics)

	publish(t, h.source, push.UserTopic("ad1"), notifications.Record{ID: "1", Title: "For you", Message: "m"})
	publish(t, h.source, push.RoleTopic("admin"), notifications.Record{ID: "2", Title: "For admins", Message: "m"})
	publish(t, h.source, push.UserTopic("someone-else"), notifications.Record{ID: "3", Title: "Not yours", Message: "m"})
	require.NoError(t, h.source.Publish(context.Background(), push.UserTopic("ad1"), []byte("garbage")))

	require.Eventually(t, func() bool { return len(h.store.State().Records) == 2 }, time.Second, 5*time.Millisecond)
	_, ok := h.store.State().Find("3")
	assert.False(t, ok)

	for _, r := range h.store.State().Records {
		assert.Equal(t, notifications.OriginPush, r.Origin)
	}
}

func TestAdapter_ReconnectSequence(t *testing.T) {
	h := startAdapter(t, push.Topics("u1", "user", nil))
	topic := push.UserTopic("u1")

	// broker outage: the subscription drops and resubscribing fails
	h.source.SetAvailable(false)
	h.waitState(t, push.StateReconnecting)

	assert.ErrorIs(t, h.source.Publish(context.Background(), topic, []byte(`{"title":"lost"}`)), push.ErrTransportUnavailable)

	h.waitBackoff(t)
	h.clock.Advance(time.Second)
	h.waitBackoff(t)
	assert.Equal(t, push.StateReconnecting, h.adapter.State())

	h.source.SetAvailable(true)
	h.clock.Advance(time.Second)
	h.waitState(t, push.StateConnected)

	publish(t, h.source, topic, notifications.Record{ID: "after", Title: "back", Message: "online"})
	require.Eventually(t, func() bool { return len(h.store.State().Records) == 1 }, time.Second, 5*time.Millisecond)
	_, ok := h.store.State().Find("after")
	assert.True(t, ok)

	h.stop()
	assert.Equal(t, push.StateClosed, h.adapter.State())
	assert.Equal(t, []push.ConnState{
		push.StateConnected,
		push.StateReconnecting,
		push.StateConnected,
		push.StateClosed,
	}, h.states.get())
}

func TestAdapter_ConnectionDrop(t *testing.T) {
	h := startAdapter(t, push.Topics("u1", "user", nil))

	h.source.Disconnect()
	h.waitState(t, push.StateReconnecting)

	h.waitBackoff(t)
	h.clock.Advance(time.Second)
	h.waitState(t, push.StateConnected)
	require.Eventually(t, func() bool { return h.source.Listeners() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAdapter_CloseWhileReconnecting(t *testing.T) {
	h := startAdapter(t, push.Topics("u1", "user", nil))

	h.source.SetAvailable(false)
	h.waitState(t, push.StateReconnecting)
	h.waitBackoff(t)

	h.stop()
	assert.Equal(t, push.StateClosed, h.adapter.State())
	require.Eventually(t, func() bool { return h.source.Listeners() == 0 }, time.Second, 5*time.Millisecond)
}

func TestAdapter_StopsIngestingAfterStoreClose(t *testing.T) {
	h := startAdapter(t, push.Topics("u1", "user", nil))
	require.NoError(t, h.store.Close())

	publish(t, h.source, push.UserTopic("u1"), notifications.Record{ID: "late", Title: "late", Message: "m"})
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, h.store.State().Records)
	assert.Equal(t, push.StateConnected, h.adapter.State())
}
