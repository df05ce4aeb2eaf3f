package push

import "context"

// Message is one payload received on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Subscription is a live connection to one or more topics. Messages is
// closed when the connection drops or the subscription is closed.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}

// Source opens subscriptions on a push transport. A failed Subscribe
// returns an error wrapping ErrTransportUnavailable.
type Source interface {
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
}
