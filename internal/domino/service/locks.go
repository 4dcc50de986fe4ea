package service

import "sync"

// lockTable serializes operations per set id. Entries are created lazily on
// first acquire and reclaimed when the last holder releases, so the table
// stays proportional to in-flight operations rather than to live sets.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*setLock
}

type setLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*setLock)}
}

// acquire blocks until the per-set lock is held and returns its release
// function. Operations on distinct set ids never contend.
func (t *lockTable) acquire(setID string) func() {
	t.mu.Lock()
	lock, ok := t.locks[setID]
	if !ok {
		lock = &setLock{}
		t.locks[setID] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		t.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(t.locks, setID)
		}
		t.mu.Unlock()
	}
}

// size reports the number of live lock entries, for tests.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
