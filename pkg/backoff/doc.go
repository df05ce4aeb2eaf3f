// Package backoff computes retry delays.
//
// Exponential grows the delay geometrically up to a cap and spreads clients
// out with random jitter so a broker outage does not end in a reconnect
// storm. Constant is mostly useful in tests.
//
//	var s backoff.Strategy = backoff.Default()
//	for attempt := 1; ; attempt++ {
//		if err := connect(); err == nil {
//			break
//		}
//		time.Sleep(s.NextInterval(attempt))
//	}
package backoff
