// Package alerts keeps the short-lived pop-ups shown when a notification is
// pushed. Each alert owns a cancellable timer; it disappears when the timer
// fires or when the user dismisses it, whichever comes first. Neither path
// touches the notification store, so alerts never change read state or the
// unread count.
//
// A Queue is scoped to one identity and must be closed on logout so no
// timer outlives the session.
package alerts
