package pull

import "errors"

// ErrFetchFailed wraps a failed snapshot fetch. The store keeps its previous
// state and the next tick tries again.
var ErrFetchFailed = errors.New("notification snapshot fetch failed")
