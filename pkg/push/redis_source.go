package push

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

const messageBuffer = 64

// RedisSource subscribes to Redis Pub/Sub channels named after the topics.
type RedisSource struct {
	client redis.UniversalClient
}

var _ Source = (*RedisSource)(nil)

func NewRedisSource(client redis.UniversalClient) *RedisSource {
	return &RedisSource{client: client}
}

// Subscribe opens one Pub/Sub connection for all topics and waits for the
// server to confirm it. The returned subscription ends on the first read error.
func (s *RedisSource) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	ps := s.client.Subscribe(ctx, topics...)

	// The first reply confirms the subscription or surfaces a dial error.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Join(ErrTransportUnavailable, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &redisSubscription{
		ps:     ps,
		out:    make(chan Message, messageBuffer),
		cancel: cancel,
	}
	go sub.run(subCtx)
	return sub, nil
}

// Publish sends payload on topic. Publishing to a topic nobody listens on
// is not an error; the message is simply lost.
func (s *RedisSource) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := s.client.Publish(ctx, topic, payload).Err(); err != nil {
		return errors.Join(ErrTransportUnavailable, err)
	}
	return nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	out    chan Message
	cancel context.CancelFunc
	once   sync.Once
}

func (s *redisSubscription) Messages() <-chan Message {
	return s.out
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) run(ctx context.Context) {
	defer close(s.out)
	defer s.Close()

	for {
		msg, err := s.ps.ReceiveMessage(ctx)
		if err != nil {
			return
		}
		select {
		case s.out <- Message{Topic: msg.Channel, Payload: []byte(msg.Payload)}:
		case <-ctx.Done():
			return
		}
	}
}
