package session

import (
	"context"
	"sync"

	"github.com/insurdash/dashboard/pkg/notifications"
	"github.com/insurdash/dashboard/pkg/notifyapi"
	"github.com/insurdash/dashboard/pkg/pull"
)

// Backend is the REST side of a session: snapshots and read confirmations.
type Backend interface {
	pull.Fetcher
	notifications.Confirmer
}

// BackendFactory returns the backend for one identity.
type BackendFactory func(Identity) Backend

// APIBackend binds every identity to the notification REST API.
func APIBackend(c *notifyapi.Client) BackendFactory {
	return func(id Identity) Backend {
		return c.For(id.api())
	}
}

// boundBackend forwards to the backend of the session's current token.
type boundBackend struct {
	mu      sync.RWMutex
	backend Backend
}

func (b *boundBackend) current() Backend {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.backend
}

func (b *boundBackend) rebind(backend Backend) {
	b.mu.Lock()
	b.backend = backend
	b.mu.Unlock()
}

func (b *boundBackend) FetchSnapshot(ctx context.Context) ([]notifications.Record, error) {
	return b.current().FetchSnapshot(ctx)
}

func (b *boundBackend) MarkRead(ctx context.Context, id string) error {
	return b.current().MarkRead(ctx, id)
}

func (b *boundBackend) MarkAllRead(ctx context.Context) error {
	return b.current().MarkAllRead(ctx)
}
