package engine

import "time"

// handleLock guards the rig handle and shadow state. Unlike sync.Mutex
// it supports acquiring with a deadline.
type handleLock chan struct{}

func newHandleLock() handleLock {
	return make(handleLock, 1)
}

func (l handleLock) Lock() {
	l <- struct{}{}
}

// TryLock waits at most d for the lock
func (l handleLock) TryLock(d time.Duration) bool {
	select {
	case l <- struct{}{}:
		return true
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case l <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (l handleLock) Unlock() {
	select {
	case <-l:
	default:
		panic("engine: unlock of unlocked handle lock")
	}
}
