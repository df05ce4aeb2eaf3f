package notifyapi

import "errors"

var (
	ErrInvalidURL       = errors.New("invalid notification API URL")
	ErrRequestFailed    = errors.New("notification API request failed")
	ErrUnexpectedStatus = errors.New("unexpected notification API status")
	ErrDecode           = errors.New("failed to decode notification API response")
)
