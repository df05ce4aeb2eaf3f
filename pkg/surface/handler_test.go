package surface_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insurdash/dashboard/pkg/alerts"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/pull"
	"github.com/insurdash/dashboard/pkg/session"
	"github.com/insurdash/dashboard/pkg/surface"
)

type stubBackend struct {
	mu       sync.Mutex
	records  []notifications.Record
	confirms int
}

func (b *stubBackend) FetchSnapshot(context.Context) ([]notifications.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]notifications.Record(nil), b.records...), nil
}

func (b *stubBackend) MarkRead(context.Context, string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirms++
	return nil
}

func (b *stubBackend) MarkAllRead(ctx context.Context) error { return b.MarkRead(ctx, "") }

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seed() []notifications.Record {
	return []notifications.Record{
		{ID: "1", Title: "Claim approved", Message: "C-1", Priority: notifications.PriorityHigh, Action: "/claims/C-1", CreatedAt: base},
		{ID: "2", Title: "Renewal", Message: "P-2", Priority: notifications.PriorityLow, CreatedAt: base.Add(time.Minute)},
		{ID: "3", Title: "Payment", Message: "P-3", Priority: notifications.PriorityHigh, CreatedAt: base.Add(2 * time.Minute), Read: true},
	}
}

type fixture struct {
	srv     *httptest.Server
	mgr     *session.Manager
	backend *stubBackend
}

func newFixture(t *testing.T, opts ...surface.Option) *fixture {
	t.Helper()

	f := &fixture{backend: &stubBackend{records: seed()}}
	f.mgr = session.NewManager(session.Config{
		Pull:   pull.Config{Interval: time.Hour, Timeout: time.Second},
		Alerts: alerts.Config{TTL: time.Hour},
	},
		session.WithBackend(func(session.Identity) session.Backend { return f.backend }),
		session.WithClock(clockwork.NewFakeClock()),
		session.WithLogger(logger.Discard()),
	)
	t.Cleanup(func() { _ = f.mgr.Close() })

	h := surface.New(f.mgr, append([]surface.Option{surface.WithLogger(logger.Discard())}, opts...)...)
	f.srv = httptest.NewServer(h.Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) signIn(t *testing.T) *session.Session {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/session", `{"userId":"u-1","role":"agent","token":"tok"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s, err := f.mgr.Current()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(s.Store().State().Records) == 3 }, time.Second, 5*time.Millisecond)
	return s
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestSurface_RequiresSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/notifications", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "session.not_found", decode(t, resp).Error.Code)

	resp = f.do(t, http.MethodPost, "/session", `{"userId":"u-1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/session", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// The badge and the feed are both derived from the same state.
func TestSurface_FeedAndCount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signIn(t)

	env := decode(t, f.do(t, http.MethodGet, "/notifications", ""))
	var feed []notifications.Record
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 3)
	assert.Equal(t, []string{"3", "2", "1"}, []string{feed[0].ID, feed[1].ID, feed[2].ID})
	assert.EqualValues(t, 2, env.Meta["unreadCount"])

	env = decode(t, f.do(t, http.MethodGet, "/notifications?limit=1", ""))
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	assert.Len(t, feed, 1)

	resp := f.do(t, http.MethodGet, "/notifications?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env = decode(t, f.do(t, http.MethodGet, "/notifications/unread-count", ""))
	assert.JSONEq(t, `{"unreadCount":2}`, string(env.Data))

	env = decode(t, f.do(t, http.MethodGet, "/notifications/priority/high", ""))
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	assert.Len(t, feed, 2)

	env = decode(t, f.do(t, http.MethodGet, "/notifications/priority/urgent", ""))
	assert.JSONEq(t, `[]`, string(env.Data))

	resp = f.do(t, http.MethodGet, "/notifications/priority/whenever", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSurface_MarkRead(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := f.signIn(t)

	resp := f.do(t, http.MethodPost, "/notifications/2/read", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var rec notifications.Record
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &rec))
	assert.True(t, rec.Read)
	assert.Equal(t, 1, s.Store().State().UnreadCount)

	resp = f.do(t, http.MethodPost, "/notifications/missing/read", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "notification.not_found", decode(t, resp).Error.Code)

	resp = f.do(t, http.MethodPost, "/notifications/read-all", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"unreadCount":0}`, string(decode(t, resp).Data))
}

func TestSurface_Refresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := f.signIn(t)

	f.backend.mu.Lock()
	f.backend.records = append(seed(), notifications.Record{ID: "4", Title: "Endorsement", Message: "E-4", CreatedAt: base.Add(3 * time.Minute)})
	f.backend.mu.Unlock()

	resp := f.do(t, http.MethodPost, "/notifications/refresh", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool { return len(s.Store().State().Records) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, s.Store().State().UnreadCount)
}

func TestSurface_Open(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := f.signIn(t)

	resp := f.do(t, http.MethodPost, "/notifications/1/open", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &out))
	assert.Equal(t, "/claims/C-1", out.Action)

	rec, ok := s.Store().State().Find("1")
	require.True(t, ok)
	assert.True(t, rec.Read)
}

func TestSurface_Alerts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := f.signIn(t)

	require.NoError(t, s.Store().IngestEvent(context.Background(), notifications.Record{ID: "9", Title: "Quote ready", Message: "Q-9"}))

	var list []alerts.Alert
	require.NoError(t, json.Unmarshal(decode(t, f.do(t, http.MethodGet, "/alerts", "")).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "9", list[0].NotificationID)

	resp := f.do(t, http.MethodDelete, "/alerts/"+list[0].DisplayID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, s.Alerts().Len())

	rec, ok := s.Store().State().Find("9")
	require.True(t, ok)
	assert.False(t, rec.Read, "dismissing an alert leaves the notification unread")

	resp = f.do(t, http.MethodDelete, "/alerts/"+list[0].DisplayID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSurface_SignOut(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := f.signIn(t)

	resp := f.do(t, http.MethodDelete, "/session", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	err := s.Store().IngestEvent(context.Background(), notifications.Record{Title: "late"})
	assert.ErrorIs(t, err, notifications.ErrStoreClosed)

	resp = f.do(t, http.MethodGet, "/alerts", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSurface_Health(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, surface.WithHealthCheck("redis", func(context.Context) error { return nil }))
		f.signIn(t)

		resp := f.do(t, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var report map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
		assert.Equal(t, "ok", report["status"])
		assert.Equal(t, string(session.PushDisabled), report["push"])
		assert.Equal(t, map[string]any{"redis": "ok"}, report["checks"])
		assert.NotNil(t, report["pull"])
	})

	t.Run("degraded", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, surface.WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }))

		resp := f.do(t, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestSurface_Stream(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := f.signIn(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	waitFor := func(substr string) {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, open := <-lines:
				if !open {
					t.Fatalf("stream ended before %q", substr)
				}
				if strings.Contains(line, substr) {
					return
				}
			case <-timeout:
				t.Fatalf("no stream line containing %q", substr)
			}
		}
	}

	waitFor(`"unreadCount":2`)

	_, err = s.Store().MarkRead(context.Background(), "1")
	require.NoError(t, err)
	waitFor(`"unreadCount":1`)

	require.NoError(t, s.Store().IngestEvent(context.Background(), notifications.Record{ID: "7", Title: "Endorsement", Message: "E-7"}))
	waitFor(`"notificationId":"7"`)
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extract := surface.RequestIDExtractor()
	_, found := extract(context.Background())
	assert.False(t, found)

	attr, found := extract(context.WithValue(context.Background(), middleware.RequestIDKey, "req-42"))
	require.True(t, found)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-42", attr.Value.String())
}
