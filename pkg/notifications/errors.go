package notifications

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrStoreClosed is returned by every mutation after Close.
	ErrStoreClosed = errors.New("notification store is closed")
	// ErrInvalidRecord is returned for records that cannot be ingested.
	ErrInvalidRecord = errors.New("invalid notification record")
	// ErrConfirmationFailed wraps a failed server-side read confirmation.
	// Local read state is kept.
	ErrConfirmationFailed = errors.New("read confirmation failed")
)
