package engine

import (
	"sync"

	"github.com/google/uuid"
)

// orderLocks hands out one mutex per order id so mutations on the same
// order serialize while different orders proceed concurrently. Entries are
// reference-counted and removed once idle, so the map does not grow with
// the total number of orders ever touched.
type orderLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{entries: make(map[uuid.UUID]*lockEntry)}
}

// lock acquires the per-order mutex and returns the matching unlock.
func (l *orderLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
