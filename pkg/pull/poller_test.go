package pull_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/pull"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchSnapshot(ctx context.Context) ([]notifications.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.Record), args.Error(1)
}

type pollerHarness struct {
	fetcher *MockFetcher
	store   *notifications.Store
	clock   *clockwork.FakeClock
	poller  *pull.Poller
	cancel  context.CancelFunc
	done    chan error
}

func startPoller(t *testing.T, setup func(*MockFetcher)) *pollerHarness {
	t.Helper()

	h := &pollerHarness{
		fetcher: &MockFetcher{},
		store:   notifications.NewStore(notifications.WithLogger(logger.Discard())),
		clock:   clockwork.NewFakeClock(),
		done:    make(chan error, 1),
	}
	setup(h.fetcher)
	t.Cleanup(func() { _ = h.store.Close() })

	h.poller = pull.NewPoller(h.fetcher, h.store, pull.Config{Interval: 30 * time.Second, Timeout: time.Second},
		pull.WithClock(h.clock),
		pull.WithLogger(logger.Discard()),
	)

	var ctx context.Context
	ctx, h.cancel = context.WithCancel(context.Background())
	go func() { h.done <- h.poller.Run(ctx) }()
	t.Cleanup(func() {
		h.cancel()
		<-h.done
	})
	return h
}

func (h *pollerHarness) tick(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(30 * time.Second)
}

func snapshot(ids ...string) []notifications.Record {
	out := make([]notifications.Record, len(ids))
	for i, id := range ids {
		out[i] = notifications.Record{ID: id, Title: "Task " + id, Message: "m", CreatedAt: time.Unix(int64(i), 0)}
	}
	return out
}

func TestPoller_FetchesOnStartAndTick(t *testing.T) {
	h := startPoller(t, func(f *MockFetcher) {
		f.On("FetchSnapshot", mock.Anything).Return(snapshot("1"), nil).Once()
		f.On("FetchSnapshot", mock.Anything).Return(snapshot("1", "2"), nil).Once()
	})

	require.Eventually(t, func() bool { return len(h.store.State().Records) == 1 }, time.Second, 5*time.Millisecond)

	h.tick(t)
	require.Eventually(t, func() bool { return len(h.store.State().Records) == 2 }, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return h.poller.Status().LastSuccess.Equal(h.clock.Now()) }, time.Second, 5*time.Millisecond)
	st := h.poller.Status()
	assert.NoError(t, st.LastError)
	assert.Zero(t, st.ConsecutiveFailures)
	h.fetcher.AssertExpectations(t)
}

func TestPoller_FailureKeepsState(t *testing.T) {
	boom := errors.New("502 bad gateway")
	h := startPoller(t, func(f *MockFetcher) {
		f.On("FetchSnapshot", mock.Anything).Return(snapshot("1", "2"), nil).Once()
		f.On("FetchSnapshot", mock.Anything).Return(nil, boom).Twice()
		f.On("FetchSnapshot", mock.Anything).Return(snapshot("1", "2", "3"), nil).Once()
	})

	require.Eventually(t, func() bool { return len(h.store.State().Records) == 2 }, time.Second, 5*time.Millisecond)
	before := h.store.State()

	h.tick(t)
	require.Eventually(t, func() bool { return h.poller.Status().ConsecutiveFailures == 1 }, time.Second, 5*time.Millisecond)
	h.tick(t)
	require.Eventually(t, func() bool { return h.poller.Status().ConsecutiveFailures == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, before, h.store.State())
	st := h.poller.Status()
	assert.ErrorIs(t, st.LastError, pull.ErrFetchFailed)
	assert.ErrorIs(t, st.LastError, boom)

	h.tick(t)
	require.Eventually(t, func() bool { return len(h.store.State().Records) == 3 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.poller.Status().ConsecutiveFailures == 0 }, time.Second, 5*time.Millisecond)
	h.fetcher.AssertExpectations(t)
}

func TestPoller_Refresh(t *testing.T) {
	h := startPoller(t, func(f *MockFetcher) {
		f.On("FetchSnapshot", mock.Anything).Return(snapshot("1"), nil).Once()
		f.On("FetchSnapshot", mock.Anything).Return(snapshot("1", "2"), nil)
	})

	require.Eventually(t, func() bool { return len(h.store.State().Records) == 1 }, time.Second, 5*time.Millisecond)

	h.poller.Refresh()
	h.poller.Refresh()
	require.Eventually(t, func() bool { return len(h.store.State().Records) == 2 }, time.Second, 5*time.Millisecond)
}

func TestPoller_FetchTimeout(t *testing.T) {
	fetcher := pull.FetcherFunc(func(ctx context.Context) ([]notifications.Record, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	store := notifications.NewStore(notifications.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = store.Close() })

	p := pull.NewPoller(fetcher, store, pull.Config{Timeout: 10 * time.Millisecond},
		pull.WithClock(clockwork.NewFakeClock()),
		pull.WithLogger(logger.Discard()),
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Status().ConsecutiveFailures == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, p.Status().LastError, context.DeadlineExceeded)

	cancel()
	assert.NoError(t, <-done)
}
