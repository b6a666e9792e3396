package billing

import (
	"context"
	"sync"
)

// MemoryLocker is a process-local Locker: one mutex per student id. It is
// the right choice for single-instance deployments and tests; multi-instance
// deployments use the Redis lease locker instead.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[uint]*studentLock
}

type studentLock struct {
	mu   sync.Mutex
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[uint]*studentLock)}
}

func (l *MemoryLocker) LockStudent(ctx context.Context, studentID uint) (func(), error) {
	l.mu.Lock()
	sl, ok := l.locks[studentID]
	if !ok {
		sl = &studentLock{}
		l.locks[studentID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		sl.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() { l.release(studentID, sl) }, nil
	case <-ctx.Done():
		// The goroutine will still acquire eventually; hand the release
		// straight back so the lock is not leaked.
		go func() {
			<-acquired
			l.release(studentID, sl)
		}()
		return nil, ctx.Err()
	}
}

func (l *MemoryLocker) release(studentID uint, sl *studentLock) {
	sl.mu.Unlock()
	l.mu.Lock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, studentID)
	}
	l.mu.Unlock()
}
