package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Observer is called after every successful transition, outside the lock.
type Observer[S, E comparable] func(ctx context.Context, from, to S, event E)

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// WithTransition registers the transition from -> to on event.
// Each (from, event) pair may be declared once.
func WithTransition[S, E comparable](from, to S, event E) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if _, ok := m.transitions[from]; !ok {
			m.transitions[from] = make(map[E]S)
		}
		if prev, ok := m.transitions[from][event]; ok {
			return fmt.Errorf("%w: %v on %v already leads to %v", ErrDuplicateTransition, from, event, prev)
		}
		m.transitions[from][event] = to
		return nil
	}
}

// WithObserver adds fn to the list of transition observers.
func WithObserver[S, E comparable](fn Observer[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
		return nil
	}
}

// Machine is a thread-safe finite state machine over comparable state and
// event types, typically string enums.
type Machine[S, E comparable] struct {
	initial     S
	current     S
	transitions map[S]map[E]S
	observers   []Observer[S, E]
	mu          sync.RWMutex
}

// New builds a machine starting in initial.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E]S),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on a bad definition.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) error {
	m.mu.Lock()
	from := m.current
	to, ok := m.transitions[from][event]
	if !ok {
		m.mu.Unlock()
		return &ErrNoTransitionAvailable{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	m.current = to
	observers := m.observers
	m.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, from, to, event)
	}
	return nil
}

// CanFire reports whether event is valid in the current state.
func (m *Machine[S, E]) CanFire(event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.transitions[m.current][event]
	return ok
}

// Reset returns the machine to its initial state without notifying observers.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
