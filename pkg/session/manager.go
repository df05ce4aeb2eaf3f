package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/insurdash/dashboard/pkg/logger"
)

// Manager holds at most one live session and swaps it on identity change.
type Manager struct {
	mu      sync.Mutex
	current *Session
	config  Config
	opts    []Option
}

func NewManager(cfg Config, opts ...Option) *Manager {
	return &Manager{config: cfg, opts: opts}
}

// Switch tears the current session down and starts one for id. Switching
// to the user and role already signed in keeps the running session and
// only rebinds its token.
func (m *Manager) Switch(ctx context.Context, id Identity) (*Session, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if m.current.sameUser(id) {
			if err := m.current.Rebind(ctx, id.Token); err != nil {
				return nil, err
			}
			return m.current, nil
		}
		old := m.current
		m.current = nil
		if err := old.Close(); err != nil {
			old.logger.LogAttrs(ctx, slog.LevelWarn, "previous session closed with errors", logger.Error(err))
		}
	}

	s, err := Start(ctx, id, m.config, m.opts...)
	if err != nil {
		return nil, err
	}
	m.current = s
	return s, nil
}

// Current returns the live session or ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

// Logout tears the live session down.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoSession
	}
	s := m.current
	m.current = nil
	return s.Close()
}

// Close tears down the live session, if any.
func (m *Manager) Close() error {
	if err := m.Logout(); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}
