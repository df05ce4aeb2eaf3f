package surface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/session"
)

const DefaultStreamFeedLimit = 20

// Sessions is the part of session.Manager the HTTP surface needs.
type Sessions interface {
	Current() (*session.Session, error)
	Switch(ctx context.Context, id session.Identity) (*session.Session, error)
	Logout() error
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for the Handler.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithHealthCheck adds a named dependency check to /healthz.
func WithHealthCheck(name string, fn HealthCheck) Option {
	return func(h *Handler) {
		if name != "" && fn != nil {
			h.checks[name] = fn
		}
	}
}

// WithStreamFeedLimit caps the feed pushed over the SSE stream when the
// client does not pass ?limit=.
func WithStreamFeedLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.streamLimit = n
		}
	}
}

// Handler serves the dashboard surfaces: the badge, the feed, the priority
// views, the alert strip and their live stream. Read state always comes from
// the live session's store.
type Handler struct {
	sessions    Sessions
	checks      map[string]HealthCheck
	streamLimit int
	logger      *slog.Logger
}

func New(sessions Sessions, opts ...Option) *Handler {
	h := &Handler{
		sessions:    sessions,
		checks:      make(map[string]HealthCheck),
		streamLimit: DefaultStreamFeedLimit,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router with every surface endpoint mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Post("/session", h.signIn)
	r.Delete("/session", h.signOut)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.feed)
			r.Get("/unread-count", h.unreadCount)
			r.Get("/priority/{priority}", h.byPriority)
			r.Get("/stream", h.stream)
			r.Post("/read-all", h.markAllRead)
			r.Post("/refresh", h.refresh)
			r.Post("/{id}/read", h.markRead)
			r.Post("/{id}/open", h.open)
		})

		r.Get("/alerts", h.listAlerts)
		r.Delete("/alerts/{displayID}", h.dismissAlert)
	})

	return r
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Current()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

type signInRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	s, err := h.sessions.Switch(r.Context(), session.Identity{UserID: req.UserID, Role: req.Role, Token: req.Token})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := s.Identity()
	ok(w, map[string]string{"userId": id.UserID, "role": id.Role}, nil)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(); err != nil && !errors.Is(err, session.ErrNoSession) {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st := session.MustFromContext(r.Context()).Store().State()
	ok(w, st.SelectFeed(limit), map[string]any{
		"unreadCount": st.SelectUnreadCount(),
		"total":       len(st.Records),
		"version":     st.Version,
	})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context()).Store().State()
	ok(w, map[string]int{"unreadCount": st.SelectUnreadCount()}, nil)
}

func (h *Handler) byPriority(w http.ResponseWriter, r *http.Request) {
	p, valid := notifications.ParsePriority(chi.URLParam(r, "priority"))
	if !valid {
		h.fail(w, r, fmt.Errorf("%w: unknown priority %q", ErrBadRequest, chi.URLParam(r, "priority")))
		return
	}
	st := session.MustFromContext(r.Context()).Store().State()
	ok(w, st.SelectByPriority(p), map[string]any{"priority": p})
}

// markRead answers as soon as the local state changed; the server
// confirmation continues in the background.
func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	store := session.MustFromContext(r.Context()).Store()
	id := chi.URLParam(r, "id")
	if _, err := store.MarkRead(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, _ := store.State().Find(id)
	writeJSON(w, http.StatusAccepted, Response{Data: rec})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	store := session.MustFromContext(r.Context()).Store()
	if _, err := store.MarkAllRead(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, Response{Data: map[string]int{"unreadCount": store.State().SelectUnreadCount()}})
}

// refresh queues an immediate pull; the result arrives through the feed
// and the stream.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := session.MustFromContext(r.Context()).Refresh(); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// open marks the notification read and hands back where the client should
// navigate.
func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	store := session.MustFromContext(r.Context()).Store()
	id := chi.URLParam(r, "id")
	if _, err := store.MarkRead(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, _ := store.State().Find(id)
	ok(w, map[string]any{"action": rec.Action, "notification": rec}, nil)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	ok(w, session.MustFromContext(r.Context()).Alerts().List(), nil)
}

func (h *Handler) dismissAlert(w http.ResponseWriter, r *http.Request) {
	q := session.MustFromContext(r.Context()).Alerts()
	if err := q.Dismiss(chi.URLParam(r, "displayID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pullHealth struct {
	LastAttempt         *time.Time `json:"lastAttempt,omitempty"`
	LastSuccess         *time.Time `json:"lastSuccess,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
}

type healthReport struct {
	Status string            `json:"status"`
	Push   string            `json:"push,omitempty"`
	Pull   *pullHealth       `json:"pull,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok"}
	status := http.StatusOK

	if s, err := h.sessions.Current(); err == nil {
		sh := s.Health()
		report.Push = string(sh.Push)
		report.Pull = &pullHealth{
			LastAttempt:         timePtr(sh.Pull.LastAttempt),
			LastSuccess:         timePtr(sh.Pull.LastSuccess),
			ConsecutiveFailures: sh.Pull.ConsecutiveFailures,
		}
		if sh.Pull.LastError != nil {
			report.Pull.LastError = sh.Pull.LastError.Error()
		}
	}

	if len(h.checks) > 0 {
		report.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(r.Context()); err != nil {
				report.Checks[name] = err.Error()
				report.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			report.Checks[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}

func limitParam(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", ErrBadRequest)
	}
	return n, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
