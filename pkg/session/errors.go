package session

import "errors"

var (
	// ErrNoSession indicates no identity is signed in
	ErrNoSession = errors.New("session.not_found")

	// ErrInvalidIdentity indicates the identity lacks a user id or role
	ErrInvalidIdentity = errors.New("session.invalid_identity")

	// ErrSessionClosed indicates the session was already torn down
	ErrSessionClosed = errors.New("session.closed")
)

// ErrNoBackend indicates no REST backend is configured
var ErrNoBackend = errors.New("session.no_backend")
