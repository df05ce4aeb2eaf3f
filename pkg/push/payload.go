package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/insurdash/dashboard/pkg/notifications"
)

type wirePayload struct {
	ID        flexString `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Icon      string     `json:"icon"`
	Priority  string     `json:"priority"`
	Action    string     `json:"action"`
	Timestamp flexTime   `json:"timestamp"`
}

// DecodePayload turns a push message into a push-origin record. Missing id,
// priority or timestamp are left empty for the store to fill in.
func DecodePayload(topic string, payload []byte) (notifications.Record, error) {
	var p wirePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return notifications.Record{}, fmt.Errorf("%w on %s: %w", ErrInvalidPayload, topic, err)
	}
	if p.Title == "" && p.Message == "" {
		return notifications.Record{}, fmt.Errorf("%w on %s: empty title and message", ErrInvalidPayload, topic)
	}

	rec := notifications.Record{
		ID:        string(p.ID),
		Title:     p.Title,
		Message:   p.Message,
		Icon:      p.Icon,
		Action:    p.Action,
		CreatedAt: time.Time(p.Timestamp),
		Origin:    notifications.OriginPush,
	}
	if prio, ok := notifications.ParsePriority(p.Priority); ok {
		rec.Priority = prio
	}
	return rec, nil
}

// EncodePayload is the inverse of DecodePayload, used by publishers.
func EncodePayload(rec notifications.Record) ([]byte, error) {
	p := map[string]any{
		"title":   rec.Title,
		"message": rec.Message,
	}
	if rec.ID != "" {
		p["id"] = rec.ID
	}
	if rec.Icon != "" {
		p["icon"] = rec.Icon
	}
	if rec.Priority != "" {
		p["priority"] = rec.Priority
	}
	if rec.Action != "" {
		p["action"] = rec.Action
	}
	if !rec.CreatedAt.IsZero() {
		p["timestamp"] = rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(p)
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexTime accepts an RFC 3339 string or Unix milliseconds.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		if v == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return err
		}
		*t = flexTime(parsed)
		return nil
	}
	ms, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = flexTime(time.UnixMilli(ms).UTC())
	return nil
}
