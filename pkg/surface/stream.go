package surface

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/insurdash/dashboard/pkg/alerts"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/session"
)

// stream patches the unreadCount, feed and alerts signals on every store or
// alert queue change. It ends with the request or with the session.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, h.streamLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	s := session.MustFromContext(ctx)

	states := s.Store().Subscribe(ctx)
	defer func() { _ = states.Close() }()
	alertSub := s.Alerts().Subscribe(ctx)
	defer func() { _ = alertSub.Close() }()

	state := s.Store().State()
	list := s.Alerts().List()

	sse := datastar.NewSSE(w, r)
	send := func(st notifications.State, al []alerts.Alert) error {
		data, err := json.Marshal(map[string]any{
			"unreadCount": st.SelectUnreadCount(),
			"feed":        st.SelectFeed(limit),
			"alerts":      al,
		})
		if err != nil {
			return err
		}
		return sse.PatchSignals(data)
	}

	if err := send(state, list); err != nil {
		h.logger.LogAttrs(ctx, slog.LevelDebug, "notification stream closed", logger.Error(err))
		return
	}

	stateCh := states.Receive(ctx)
	alertCh := alertSub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-stateCh:
			if !open {
				return
			}
			state = msg.Data
		case msg, open := <-alertCh:
			if !open {
				return
			}
			list = msg.Data
		}
		if err := send(state, list); err != nil {
			h.logger.LogAttrs(ctx, slog.LevelDebug, "notification stream closed", logger.Error(err))
			return
		}
	}
}
