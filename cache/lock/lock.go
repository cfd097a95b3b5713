// Package lock serializes accessor generation per cache identity, within a
// process and across processes sharing a workspace.
package lock

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
)

// ErrLockTimeout is returned when a lock could not be acquired in time.
var ErrLockTimeout = errors.New("lock acquisition timed out")

type (
	// Locker runs work under a per-key mutual exclusion.
	Locker interface {
		// WithLock runs fn while holding the lock of key. Implementations
		// may let concurrent callers of the same key share the result of a
		// single run of fn, so callers must re-read the state fn produces
		// instead of relying on fn having run.
		WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
	}

	// Keyed is the in-process Locker. Concurrent callers with the same key
	// share one execution of fn. Distinct keys never contend.
	Keyed struct {
		group singleflight.Group
	}
)

var _ Locker = (*Keyed)(nil)

// NewKeyed returns an in-process keyed lock.
func NewKeyed() *Keyed {
	return &Keyed{}
}

// WithLock runs fn unless a call for key is in flight, in which case it
// waits for that call and returns its error.
func (k *Keyed) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ch := k.group.DoChan(key, func() (any, error) {
		return nil, fn(ctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
