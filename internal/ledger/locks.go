package ledger

import (
	"slices"
	"sync"
)

// balanceLocks serializes work per balance ID inside one process.
// Entries are reference counted and dropped once nobody holds or waits.
type balanceLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newBalanceLocks() *balanceLocks {
	return &balanceLocks{locks: make(map[string]*refMutex)}
}

// lock acquires every id in sorted order and returns the release func.
// Sorting keeps two writers with overlapping sets from deadlocking.
func (l *balanceLocks) lock(ids []string) (unlock func()) {
	ids = uniqueSorted(ids)
	held := make([]*refMutex, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		m, ok := l.locks[id]
		if !ok {
			m = &refMutex{}
			l.locks[id] = m
		}
		m.refs++
		l.mu.Unlock()

		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, ids[i])
			}
			l.mu.Unlock()
		}
	}
}

func (l *balanceLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
