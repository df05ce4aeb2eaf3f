package push

import "errors"

var (
	// ErrTransportUnavailable means the push channel is down. The dashboard
	// keeps working from the pull snapshots until it comes back.
	ErrTransportUnavailable = errors.New("push transport unavailable")
	// ErrInvalidPayload is returned for messages that cannot become a notification.
	ErrInvalidPayload = errors.New("invalid push payload")
)
