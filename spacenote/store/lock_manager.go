package store

import "sync"

// operationType distinguishes read from write operations so the lock
// manager can pick the right lock: concurrent RLocks for reads, an
// exclusive Lock for writes.
type operationType int

const (
	readOperation operationType = iota
	writeOperation
)

// lockManager centralizes in-process locking for a backend. Routing every
// data access through Execute keeps lock acquisition and release in one
// place and rules out lock/unlock/relock mistakes in the backends.
type lockManager struct {
	mu sync.RWMutex
}

// execute runs fn under the lock appropriate for the operation type. The
// lock is released via defer, panics included.
func (lm *lockManager) execute(op operationType, fn func() error) error {
	switch op {
	case readOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case writeOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}
