// Package surface exposes the notification dashboard over HTTP.
//
// Every read goes through the selectors of the live session's store, so the
// badge, the feed and the priority views can never disagree. Mutations
// answer once the optimistic local change is published:
//
//	GET    /notifications?limit=            feed, unread count in meta
//	GET    /notifications/unread-count
//	GET    /notifications/priority/{priority}
//	POST   /notifications/{id}/read
//	POST   /notifications/read-all
//	POST   /notifications/refresh           fetch from the API now
//	POST   /notifications/{id}/open         mark read, return the action
//	GET    /notifications/stream            Datastar SSE signal patches
//	GET    /alerts
//	DELETE /alerts/{displayID}
//	POST   /session, DELETE /session        identity switch and logout
//	GET    /healthz
package surface
