// Package async provides a small generic Future for work that completes in
// the background.
//
// Async starts a function in its own goroutine and returns a *Future right
// away. Callers that care about the outcome Await it (or AwaitContext to
// bound the wait); callers that do not can simply drop it.
//
//	f := async.Async(ctx, id, confirm)
//	if _, err := f.AwaitContext(ctx); err != nil {
//		log.Printf("confirmation failed: %v", err)
//	}
//
// If ctx is cancelled before the goroutine starts the function, the future
// completes with the context error without running it.
package async
