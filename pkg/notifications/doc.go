// Package notifications holds the per-identity notification feed of the
// insurance dashboard and reconciles the two transports that fill it.
//
// Push events arrive one by one through IngestEvent; the periodic pull
// delivers full snapshots through IngestSnapshot. Both merge by id:
// display text is fixed once set, Read only ever goes from false to true, and
// snapshots never delete records. Push events without an id are kept under a
// provisional "push-" id and re-keyed when a snapshot brings a record with
// the same title and message and a createdAt inside the match window.
//
// User actions are optimistic. MarkRead and MarkAllRead update the state
// before the server is contacted and never roll back; until the server
// confirms, the record carries PendingConfirmation.
//
//	store := notifications.NewStore(
//		notifications.WithConfirmer(api.ConfirmerFor(identity)),
//		notifications.WithDeliverer(alertQueue),
//		notifications.WithLogger(log),
//	)
//	defer store.Close()
//
//	_ = store.IngestSnapshot(ctx, records)
//	confirmation, err := store.MarkRead(ctx, "42")
//
// Every mutation publishes a new immutable State. Presentation code reads
// it through the Select methods and never keeps its own unread counter.
package notifications
