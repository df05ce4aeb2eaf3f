package surface

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/insurdash/dashboard/pkg/alerts"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/session"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, data any, meta map[string]any) {
	writeJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// classify maps domain errors to their HTTP form.
func classify(err error) HTTPError {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, session.ErrNoSession):
		return HTTPError{Code: http.StatusUnauthorized, Key: "session.not_found"}
	case errors.Is(err, session.ErrInvalidIdentity):
		return HTTPError{Code: http.StatusUnprocessableEntity, Key: "session.invalid_identity"}
	case errors.Is(err, notifications.ErrNotificationNotFound):
		return HTTPError{Code: http.StatusNotFound, Key: "notification.not_found"}
	case errors.Is(err, alerts.ErrAlertNotFound):
		return HTTPError{Code: http.StatusNotFound, Key: "alert.not_found"}
	case errors.Is(err, notifications.ErrStoreClosed), errors.Is(err, alerts.ErrQueueClosed),
		errors.Is(err, session.ErrSessionClosed):
		return HTTPError{Code: http.StatusConflict, Key: "session.closed"}
	default:
		return HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	he := classify(err)

	level := slog.LevelWarn
	if he.Code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", he.Code),
		logger.Error(err),
	)

	msg := http.StatusText(he.Code)
	if he.Code < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, he.Code, Response{Error: &ErrorDetail{Code: he.Key, Message: msg}})
}
