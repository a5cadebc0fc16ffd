package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"assofund/internal/core/domain"
)

// LockRegistry hands out per-member exclusive locks. Every ledger mutation
// (settlement, sweep, obligation generation) holds the member's lock across
// its whole read-modify-write sequence, so two concurrent payments for one
// member can never double-spend the same credit. Different members never
// contend.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[uint]chan struct{}
}

// NewLockRegistry creates an empty registry. One registry is shared by all
// services that touch the ledger.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[uint]chan struct{})}
}

func (l *LockRegistry) slot(memberID uint) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[memberID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[memberID] = ch
	}
	return ch
}

// Acquire takes the member's exclusive lock. It fails with
// ErrConcurrencyConflict when the lock cannot be obtained within timeout or
// the context ends first. The returned release function must be called
// exactly once.
func (l *LockRegistry) Acquire(ctx context.Context, memberID uint, timeout time.Duration) (release func(), err error) {
	ch := l.slot(memberID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: member %d", domain.ErrConcurrencyConflict, memberID)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, ctx.Err())
	}
}
