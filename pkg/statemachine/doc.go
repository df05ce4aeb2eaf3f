// Package statemachine implements a small, generic finite state machine.
//
// States and events are any comparable type, usually string enums:
//
//	type conn string
//	type signal string
//
//	m := statemachine.MustNew[conn, signal]("connecting",
//		statemachine.WithTransition[conn, signal]("connecting", "connected", "subscribed"),
//		statemachine.WithTransition[conn, signal]("connected", "reconnecting", "lost"),
//		statemachine.WithObserver(func(ctx context.Context, from, to conn, ev signal) {
//			log.Printf("%s -> %s (%s)", from, to, ev)
//		}),
//	)
//
// Fire returns *ErrNoTransitionAvailable for events the current state does
// not accept. Observers run synchronously after the state has changed.
package statemachine
