package notifyapi

import (
	"context"

	"github.com/insurdash/dashboard/pkg/notifications"
)

// Bound is a Client fixed to one identity. It serves as the snapshot fetcher
// for the poller and as the confirmer for the store.
type Bound struct {
	client *Client
	id     Identity
}

var _ notifications.Confirmer = (*Bound)(nil)

// For binds the client to id.
func (c *Client) For(id Identity) *Bound {
	return &Bound{client: c, id: id}
}

func (b *Bound) FetchSnapshot(ctx context.Context) ([]notifications.Record, error) {
	return b.client.FetchSnapshot(ctx, b.id)
}

func (b *Bound) MarkRead(ctx context.Context, notificationID string) error {
	return b.client.MarkRead(ctx, b.id, notificationID)
}

func (b *Bound) MarkAllRead(ctx context.Context) error {
	return b.client.MarkAllRead(ctx, b.id)
}
