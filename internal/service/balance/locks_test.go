package balance

import (
    "sync"
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/tinoosan/bookledger/internal/ledger"
)

func TestScopeLocksIndependentScopes(t *testing.T) {
    l := NewScopeLocks()
    a := ledger.Scope{Book: "A", Year: 2025}
    b := ledger.Scope{Book: "B", Year: 2025}
    unlockA := l.Lock(a)
    var wg sync.WaitGroup
    wg.Add(1)
    go func() {
        defer wg.Done()
        unlockB := l.Lock(b)
        unlockB()
    }()
    wg.Wait()
    unlockA()
    unlockA()
    assert.Equal(t, 0, l.held())
}

func TestScopeLocksSharedHolders(t *testing.T) {
    l := NewScopeLocks()
    s := ledger.Scope{Book: "A", Year: 2025}
    r1 := l.RLock(s)
    r2 := l.RLock(s)
    assert.Equal(t, 1, l.held())
    r1()
    r2()
    assert.Equal(t, 0, l.held())
}
