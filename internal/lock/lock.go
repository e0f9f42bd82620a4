// Package lock keeps pipeline runs from overlapping.
package lock

import (
	"context"
	"sync"
)

// Locker grants exclusive permission to run the pipeline. TryLock never
// blocks: acquired is false when another run holds the lock. On success the
// caller must invoke release when the run ends.
type Locker interface {
	TryLock(ctx context.Context) (release func(), acquired bool, err error)
}

// MemoryLocker serializes runs within one process.
type MemoryLocker struct {
	mu sync.Mutex
}

func NewMemoryLocker() *MemoryLocker { return &MemoryLocker{} }

func (l *MemoryLocker) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

// NopLocker always grants the lock.
type NopLocker struct{}

func (NopLocker) TryLock(context.Context) (func(), bool, error) {
	return func() {}, true, nil
}
