package alerts

import "errors"

var (
	ErrAlertNotFound = errors.New("alert not found")
	ErrQueueClosed   = errors.New("alert queue is closed")
)
