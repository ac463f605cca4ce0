package ledger

import "sync"

// CardLocks serialises writers of the same card within a process.
// Entries are reference counted and dropped once no goroutine holds them.
type CardLocks struct {
	mu    sync.Mutex
	locks map[string]*cardLock
}

type cardLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the caller is the only writer of cardID. The returned
// function releases the lock.
func (l *CardLocks) Lock(cardID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*cardLock)
	}
	cl, ok := l.locks[cardID]
	if !ok {
		cl = &cardLock{}
		l.locks[cardID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, cardID)
		}
		l.mu.Unlock()
	}
}

// Held returns the number of cards currently tracked.
func (l *CardLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
