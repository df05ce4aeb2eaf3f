// Package push keeps a dashboard identity subscribed to its real-time
// notification channels.
//
// Every identity listens on notifications.user.<id>; roles listed in the
// grant (admin and super_admin by default) also listen on
// notifications.role.<role>. Messages are JSON objects with title and
// message plus optional id, icon, priority, action and timestamp.
//
// The Adapter moves through CONNECTING, CONNECTED and RECONNECTING, retrying
// with exponential backoff after any loss, and reaches CLOSED only when its
// context is cancelled. Delivery is at-most-once; nothing sent while the
// channel is down is replayed.
//
//	source := push.NewRedisSource(redisClient)
//	adapter := push.NewAdapter(source, store, push.Topics(id, role, cfg.RoleTopics),
//		push.WithBackoff(cfg.Backoff),
//		push.WithLogger(log),
//	)
//	go adapter.Run(ctx)
package push
