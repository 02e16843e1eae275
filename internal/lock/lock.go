package lock

import "sync"

// KeyedLockManager serialises read-modify-write cycles on a single job id.
// Fire-count decrements, stop/restart/delete status writes and
// execution-completion updates for the same id must all run under its lock so
// none silently overwrites another.
type KeyedLockManager interface {
	Acquire(key string) error
	Release(key string) error
}

// InProcessLockManager is the single-process implementation: one mutex per
// key, created lazily and never discarded.
type InProcessLockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewInProcessLockManager() *InProcessLockManager {
	return &InProcessLockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *InProcessLockManager) Acquire(key string) error {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return nil
}

func (m *InProcessLockManager) Release(key string) error {
	m.mu.Lock()
	l, ok := m.locks[key]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	l.Unlock()
	return nil
}
