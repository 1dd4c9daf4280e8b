// Package shardlock serializes work per key without a global lock. Keys are
// spread over a fixed set of mutexes by FNV-1a hash, so unrelated keys rarely
// contend and equal keys always share a mutex.
package shardlock

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "carewatch/pkg/domain-errors"
)

// NumShards is the number of mutexes keys are spread across.
const NumShards = 128

// DefaultTimeout bounds a locked section when ctx has no deadline.
const DefaultTimeout = 5 * time.Second

type Locker struct {
	shards  [NumShards]sync.Mutex
	timeout time.Duration
}

// New returns a Locker whose sections time out after timeout when the caller
// supplies no deadline. Zero selects DefaultTimeout.
func New(timeout time.Duration) *Locker {
	return &Locker{timeout: timeout}
}

// WithKey runs fn while holding key's shard. The context is checked before
// and after acquiring the lock, never while fn runs, so a cancelled caller
// cannot abandon a half-applied write.
func (l *Locker) WithKey(ctx context.Context, key string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation aborted: context cancelled")
	}

	timeout := l.timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	mu := &l.shards[Shard(key)]
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation aborted: context cancelled")
	}
	return fn()
}

// Shard returns the shard index for key.
func Shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % NumShards)
}
