package appointment

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockNotAcquired is returned by lockers whose wait bound ran out while
// another holder kept the key. A caller whose own context ended gets the
// context error instead.
var ErrLockNotAcquired = errors.New("slot lock not acquired")

// Locker serialises critical sections per slot key.
type Locker interface {
	WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// LocalLocker is an in-process keyed lock. Waiters block until the holder
// releases, the wait bound passes or their context ends. Idle keys are
// dropped.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
	wait  time.Duration
}

type localSlot struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker returns a locker whose waiters give up after wait. A zero
// wait means waiting until the context ends.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{slots: make(map[string]*localSlot), wait: wait}
}

func (l *LocalLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	slot := l.acquireRef(key)
	defer l.releaseRef(key, slot)

	var expired <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case slot.sem <- struct{}{}:
	case <-expired:
		return ErrLockNotAcquired
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-slot.sem }()

	return fn(ctx)
}

func (l *LocalLocker) acquireRef(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &localSlot{sem: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) releaseRef(key string, s *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held reports how many keys currently have holders or waiters.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
