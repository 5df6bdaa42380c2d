package ports

import "context"

// WriteSerializer runs fn with exclusive access to a collection. Callers for
// the same collection are admitted one at a time in arrival order; different
// collections never wait on each other. The slot is released when fn returns,
// whatever the outcome.
//
// A read-modify-write must happen entirely inside fn. fn must not call
// WithExclusiveAccess again for the same collection.
type WriteSerializer interface {
	WithExclusiveAccess(ctx context.Context, collection string, fn func(ctx context.Context) error) error
}
