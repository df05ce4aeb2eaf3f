// Package broadcast provides type-safe, non-blocking one-to-many fan-out.
//
// Slow subscribers never stall the publisher. With the default DropNewest
// policy a full buffer discards the incoming message; with DropOldest the
// buffer keeps the freshest messages, which suits state streams where only
// the latest value matters:
//
//	states := broadcast.NewMemoryBroadcaster[State](1, broadcast.WithOverflow(broadcast.DropOldest))
//	defer states.Close()
//
//	sub := states.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
package broadcast
