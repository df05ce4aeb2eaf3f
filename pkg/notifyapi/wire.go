package notifyapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/insurdash/dashboard/pkg/notifications"
)

type wireNotification struct {
	ID        wireID `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Icon      string `json:"icon"`
	Priority  string `json:"priority"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
}

// record maps the API shape onto a pull-origin record. An unparseable
// priority or timestamp is left empty so the store applies its defaults.
func (w wireNotification) record() notifications.Record {
	rec := notifications.Record{
		ID:      string(w.ID),
		Title:   w.Title,
		Message: w.Message,
		Icon:    w.Icon,
		Action:  w.Action,
		Read:    w.Read,
		Origin:  notifications.OriginPull,
	}
	if p, ok := notifications.ParsePriority(w.Priority); ok {
		rec.Priority = p
	}
	if ts, err := time.Parse(time.RFC3339Nano, w.Timestamp); err == nil {
		rec.CreatedAt = ts
	}
	return rec
}

// wireID accepts both string and numeric ids.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}
