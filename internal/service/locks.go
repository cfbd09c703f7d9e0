package service

import "sync"

// groupLocks serializes membership-mutating operations per group so that
// concurrent edits cannot lose updates to the members list. Lock entries
// are tiny and groups are finite, so entries are never evicted.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the named group and returns the unlock function.
func (g *groupLocks) acquire(groupID string) func() {
	g.mu.Lock()
	lock, ok := g.locks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[groupID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
