// Package keylock provides mutual exclusion per string key.
//
// Locks for keys that are not held by anyone are released, so the number of
// tracked keys stays bounded by the number of concurrent holders.
package keylock

import "sync"

type entry struct {
	mu      sync.Mutex
	holders int
}

// Locker serializes critical sections that share the same key.
// The zero value is ready to use.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Lock blocks until the key is free and returns the matching unlock function.
func (l *Locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*entry)
	}

	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.holders++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.holders--
		if e.holders == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of keys that are currently locked or waited for.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}
