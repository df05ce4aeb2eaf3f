package push

import (
	"context"
	"sync"

	"github.com/insurdash/dashboard/pkg/broadcast"
	"github.com/insurdash/dashboard/pkg/cache"
)

const memoryTopicCapacity = 1024

// MemorySource is an in-process push transport for development and tests.
// It can simulate connection drops and broker outages.
type MemorySource struct {
	mu     sync.Mutex
	topics *cache.LRU[string, *broadcast.MemoryBroadcaster[[]byte]]
	subs   map[*memorySubscription]struct{}
	down   bool
}

var _ Source = (*MemorySource)(nil)

func NewMemorySource() *MemorySource {
	return &MemorySource{
		// An evicted topic closes its broadcaster, which its listeners see
		// as a dropped connection.
		topics: cache.New(memoryTopicCapacity, cache.WithEvictCallback(
			func(_ string, b *broadcast.MemoryBroadcaster[[]byte]) { _ = b.Close() },
		)),
		subs: make(map[*memorySubscription]struct{}),
	}
}

// Subscribe listens on every topic through one subscription.
func (m *MemorySource) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.down {
		return nil, ErrTransportUnavailable
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &memorySubscription{
		out:    make(chan Message, messageBuffer),
		cancel: cancel,
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		b, ok := m.topics.Get(topic)
		if !ok {
			b = broadcast.NewMemoryBroadcaster[[]byte](messageBuffer)
			m.topics.Put(topic, b)
		}
		wg.Add(1)
		go sub.forward(subCtx, &wg, topic, b.Subscribe(subCtx))
	}

	m.subs[sub] = struct{}{}
	go func() {
		wg.Wait()
		close(sub.out)
		m.mu.Lock()
		delete(m.subs, sub)
		m.mu.Unlock()
	}()

	return sub, nil
}

// Publish delivers payload to the current listeners of topic. With no
// listener the message is dropped.
func (m *MemorySource) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	if m.down {
		m.mu.Unlock()
		return ErrTransportUnavailable
	}
	b, ok := m.topics.Peek(topic)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return b.Broadcast(ctx, broadcast.Message[[]byte]{Data: payload})
}

// Disconnect drops every open subscription, as a broker restart would.
func (m *MemorySource) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		sub.cancel()
	}
}

// SetAvailable toggles a simulated outage. Going down drops all
// subscriptions and makes Subscribe and Publish fail.
func (m *MemorySource) SetAvailable(up bool) {
	m.mu.Lock()
	m.down = !up
	m.mu.Unlock()
	if !up {
		m.Disconnect()
	}
}

// Listeners returns the number of open subscriptions.
func (m *MemorySource) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

type memorySubscription struct {
	out    chan Message
	cancel context.CancelFunc
}

func (s *memorySubscription) Messages() <-chan Message {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.cancel()
	return nil
}

// forward copies one topic into the shared channel. When any topic ends
// the whole subscription ends.
func (s *memorySubscription) forward(ctx context.Context, wg *sync.WaitGroup, topic string, in broadcast.Subscriber[[]byte]) {
	defer wg.Done()
	defer s.cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in.Receive(ctx):
			if !ok {
				return
			}
			select {
			case s.out <- Message{Topic: topic, Payload: msg.Data}:
			case <-ctx.Done():
				return
			}
		}
	}
}
