// Package pull periodically fetches the full notification list for the
// signed-in identity and hands it to the store.
//
// The first fetch happens as soon as Run starts, then every Config.Interval
// (30s by default), plus whenever Refresh is called. Each fetch gets its own
// timeout. Failures are logged and recorded in Status; the store keeps what
// it had and the next tick retries, so there is no separate backoff.
package pull
