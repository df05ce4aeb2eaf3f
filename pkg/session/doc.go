// Package session scopes the notification components to one signed-in
// identity.
//
// Start wires a notifications.Store to an alerts.Queue, a pull.Poller and,
// when a push.Source is configured, a push.Adapter subscribed to the user's
// topics. The adapters run in an errgroup until Close, which cancels them,
// waits for them and then closes the store and the queue. After Close no
// late push message or fetch can reach the store, and every alert timer is
// stopped.
//
// Manager keeps the single live session of a process and replaces it on
// Switch or drops it on Logout. A Switch to the same user and role with a
// new token rebinds the running session instead:
//
//	mgr := session.NewManager(cfg,
//		session.WithBackend(session.APIBackend(api)),
//		session.WithSource(push.NewRedisSource(rdb)),
//	)
//	s, err := mgr.Switch(ctx, session.Identity{UserID: "u1", Role: "agent", Token: tok})
package session
