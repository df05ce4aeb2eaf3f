// Package notifyapi is the HTTP client for the notification REST API.
//
// The API exposes three calls:
//
//	GET  {base}/notifications?userId=&role=   full list for the caller
//	POST {base}/notifications/{id}/read       mark one as read
//	POST {base}/notifications/read-all        mark every one as read
//
// Requests carry the caller's bearer token. Any non-2xx status is reported
// as ErrUnexpectedStatus, a malformed body as ErrDecode. Both mutations are
// idempotent on the server.
//
// Use Client.For to obtain a value bound to one identity that satisfies the
// pull.Fetcher and notifications.Confirmer interfaces:
//
//	api, err := notifyapi.NewClient(cfg)
//	bound := api.For(notifyapi.Identity{UserID: "u1", Role: "agent", Token: tok})
//	store := notifications.NewStore(notifications.WithConfirmer(bound))
package notifyapi
