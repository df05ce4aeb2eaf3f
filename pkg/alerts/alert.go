package alerts

import (
	"time"

	"github.com/insurdash/dashboard/pkg/notifications"
)

// Alert is a short-lived pop-up for a pushed notification. It is never
// persisted and has no effect on read state.
type Alert struct {
	DisplayID      string                 `json:"displayId"`
	NotificationID string                 `json:"notificationId,omitempty"`
	Title          string                 `json:"title"`
	Text           string                 `json:"text"`
	Priority       notifications.Priority `json:"priority"`
	Icon           string                 `json:"icon,omitempty"`
	Action         string                 `json:"action,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	ExpiresAt      time.Time              `json:"expiresAt"`
}

// FromRecord projects a pushed record into an alert.
func FromRecord(rec notifications.Record) Alert {
	return Alert{
		NotificationID: rec.ID,
		Title:          rec.Title,
		Text:           rec.Message,
		Priority:       rec.Priority,
		Icon:           rec.Icon,
		Action:         rec.Action,
		CreatedAt:      rec.CreatedAt,
	}
}
