package balance

import (
    "sync"

    "github.com/tinoosan/bookledger/internal/ledger"
)

// ScopeLocks is a keyed RW lock. Entries are dropped when the last holder
// releases them so the map does not grow with every scope ever seen.
type ScopeLocks struct {
    mu sync.Mutex
    m  map[ledger.Scope]*scopeLock
}

type scopeLock struct {
    rw   sync.RWMutex
    refs int
}

func NewScopeLocks() *ScopeLocks { return &ScopeLocks{m: make(map[ledger.Scope]*scopeLock)} }

func (l *ScopeLocks) acquire(s ledger.Scope) *scopeLock {
    l.mu.Lock()
    defer l.mu.Unlock()
    sl, ok := l.m[s]
    if !ok {
        sl = &scopeLock{}
        l.m[s] = sl
    }
    sl.refs++
    return sl
}

func (l *ScopeLocks) release(s ledger.Scope, sl *scopeLock) {
    l.mu.Lock()
    defer l.mu.Unlock()
    sl.refs--
    if sl.refs == 0 {
        delete(l.m, s)
    }
}

// RLock takes the scope in shared mode.
func (l *ScopeLocks) RLock(s ledger.Scope) func() {
    sl := l.acquire(s)
    sl.rw.RLock()
    var once sync.Once
    return func() {
        once.Do(func() {
            sl.rw.RUnlock()
            l.release(s, sl)
        })
    }
}

// Lock takes the scope exclusively.
func (l *ScopeLocks) Lock(s ledger.Scope) func() {
    sl := l.acquire(s)
    sl.rw.Lock()
    var once sync.Once
    return func() {
        once.Do(func() {
            sl.rw.Unlock()
            l.release(s, sl)
        })
    }
}

// held returns the number of scopes currently tracked.
func (l *ScopeLocks) held() int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return len(l.m)
}
