package notifications

import "context"

// Deliverer hands a freshly pushed record to a real-time surface, such as
// the ephemeral alert queue. It must not block.
type Deliverer interface {
	Deliver(ctx context.Context, rec Record) error
}

// Confirmer propagates local read state to the server. Both calls are
// idempotent on the server side.
type Confirmer interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// NoOpDeliverer drops every record.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Record) error { return nil }

// NoOpConfirmer acknowledges every confirmation without doing anything.
// Useful for tests and offline development.
type NoOpConfirmer struct{}

func (NoOpConfirmer) MarkRead(context.Context, string) error { return nil }
func (NoOpConfirmer) MarkAllRead(context.Context) error      { return nil }
