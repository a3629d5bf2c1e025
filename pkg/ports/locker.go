package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on one session across replicas.
type DistributedLocker interface {
	// Lock blocks until the key is held, ctx is done, or the implementation
	// gives up. The lock expires on its own after ttl. The returned UnlockFunc
	// must be called once the work is done.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
