package httpserver

import "errors"

var (
	// ErrStart is returned when the listener cannot be opened or serving
	// stops for a reason other than shutdown.
	ErrStart = errors.New("httpserver: failed to serve")
	// ErrShutdown is returned when open connections, including SSE
	// streams, outlive the shutdown timeout.
	ErrShutdown = errors.New("httpserver: graceful shutdown did not finish")
)
