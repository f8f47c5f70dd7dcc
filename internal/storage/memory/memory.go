package memory

// Package memory provides an in-memory ledger store used for development and tests.
// It has no transactions, so the posting engine drives it through the
// compensating-rollback path.
import (
    "context"
    "sort"
    "sync"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/meta"
)

type idemRecord struct {
    hash  string
    entry ledger.EntryKey
}

// Store keeps entries, balances and sequences in maps guarded by one RWMutex.
// Every method is atomic with respect to the others.
type Store struct {
    mu      sync.RWMutex
    entries map[ledger.EntryKey]*ledger.JournalEntry
    // Per-scope entry ids, sorted ascending.
    idsByScope map[ledger.Scope][]int64
    seq        map[ledger.Scope]int64
    // original entry -> reversing entry
    reversals map[ledger.EntryKey]ledger.EntryKey
    balances  map[ledger.BalanceKey]ledger.MonthlyBalance
    idem      map[string]idemRecord
}

// New constructs an empty in-memory store.
func New() *Store {
    s := &Store{}
    s.Reset()
    return s
}

// Reset drops all data.
func (s *Store) Reset() {
    s.mu.Lock()
    s.entries = map[ledger.EntryKey]*ledger.JournalEntry{}
    s.idsByScope = map[ledger.Scope][]int64{}
    s.seq = map[ledger.Scope]int64{}
    s.reversals = map[ledger.EntryKey]ledger.EntryKey{}
    s.balances = map[ledger.BalanceKey]ledger.MonthlyBalance{}
    s.idem = map[string]idemRecord{}
    s.mu.Unlock()
}

// --- Entries ---

// InsertEntry stores the entry and its postings. EntryID 0 allocates the next
// id of the scope; an explicit id raises the sequence to at least that id.
func (s *Store) InsertEntry(_ context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    scope := e.Scope()
    if e.EntryID == 0 {
        e.EntryID = s.seq[scope] + 1
    }
    if _, exists := s.entries[e.Key()]; exists {
        return ledger.JournalEntry{}, errs.ErrDuplicateEntry
    }
    if e.ReversalOf != nil {
        if _, done := s.reversals[*e.ReversalOf]; done {
            return ledger.JournalEntry{}, errs.ErrAlreadyReversed
        }
        s.reversals[*e.ReversalOf] = e.Key()
    }
    if e.EntryID > s.seq[scope] {
        s.seq[scope] = e.EntryID
    }
    stored := clone(e)
    s.entries[e.Key()] = &stored
    s.insertIDLocked(scope, e.EntryID)
    return clone(stored), nil
}

// DeleteEntry removes the entry with all its postings and returns what was removed.
func (s *Store) DeleteEntry(_ context.Context, key ledger.EntryKey) (ledger.JournalEntry, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.entries[key]
    if !ok {
        return ledger.JournalEntry{}, errs.ErrNotFound
    }
    delete(s.entries, key)
    if e.ReversalOf != nil {
        if rk, ok := s.reversals[*e.ReversalOf]; ok && rk == key {
            delete(s.reversals, *e.ReversalOf)
        }
    }
    s.removeIDLocked(key.Scope(), key.EntryID)
    return clone(*e), nil
}

// Entry returns one entry with its postings.
func (s *Store) Entry(_ context.Context, key ledger.EntryKey) (ledger.JournalEntry, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    e, ok := s.entries[key]
    if !ok {
        return ledger.JournalEntry{}, errs.ErrNotFound
    }
    return clone(*e), nil
}

// EntriesInScope returns every entry of the scope in entry id order.
func (s *Store) EntriesInScope(_ context.Context, scope ledger.Scope) ([]ledger.JournalEntry, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    ids := s.idsByScope[scope]
    out := make([]ledger.JournalEntry, 0, len(ids))
    for _, id := range ids {
        if e, ok := s.entries[ledger.EntryKey{Book: scope.Book, Year: scope.Year, EntryID: id}]; ok {
            out = append(out, clone(*e))
        }
    }
    return out, nil
}

// ReversalOf returns the key of the entry reversing key, if any.
func (s *Store) ReversalOf(_ context.Context, key ledger.EntryKey) (ledger.EntryKey, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    rk, ok := s.reversals[key]
    return rk, ok, nil
}

// NextEntryID peeks at the id the next allocation would return.
func (s *Store) NextEntryID(_ context.Context, scope ledger.Scope) (int64, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.seq[scope] + 1, nil
}

// Scopes lists every scope holding entries or balances.
func (s *Store) Scopes(_ context.Context) ([]ledger.Scope, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    seen := map[ledger.Scope]struct{}{}
    for sc, ids := range s.idsByScope {
        if len(ids) > 0 {
            seen[sc] = struct{}{}
        }
    }
    for k := range s.balances {
        seen[ledger.Scope{Book: k.Book, Year: k.Year}] = struct{}{}
    }
    out := make([]ledger.Scope, 0, len(seen))
    for sc := range seen {
        out = append(out, sc)
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Book != out[j].Book {
            return out[i].Book < out[j].Book
        }
        return out[i].Year < out[j].Year
    })
    return out, nil
}

// insertIDLocked keeps the scope's id list sorted. Caller must hold s.mu.
func (s *Store) insertIDLocked(scope ledger.Scope, id int64) {
    ids := s.idsByScope[scope]
    i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
    ids = append(ids, 0)
    copy(ids[i+1:], ids[i:])
    ids[i] = id
    s.idsByScope[scope] = ids
}

// removeIDLocked drops id from the scope's list. Caller must hold s.mu.
func (s *Store) removeIDLocked(scope ledger.Scope, id int64) {
    ids := s.idsByScope[scope]
    i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
    if i < len(ids) && ids[i] == id {
        s.idsByScope[scope] = append(ids[:i], ids[i+1:]...)
    }
}

// --- Idempotency ---

// EntryByIdempotencyKey resolves a key to the entry it created and the body hash it was saved with.
func (s *Store) EntryByIdempotencyKey(_ context.Context, key string) (ledger.EntryKey, string, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    rec, ok := s.idem[key]
    return rec.entry, rec.hash, ok, nil
}

// SaveIdempotencyKey stores the mapping unless the key is already taken.
func (s *Store) SaveIdempotencyKey(_ context.Context, key, hash string, entry ledger.EntryKey) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, exists := s.idem[key]; !exists {
        s.idem[key] = idemRecord{hash: hash, entry: entry}
    }
    return nil
}

func clone(e ledger.JournalEntry) ledger.JournalEntry {
    out := e
    out.Postings = append([]ledger.Posting(nil), e.Postings...)
    out.Metadata = meta.New(e.Metadata)
    if e.ReversalOf != nil {
        k := *e.ReversalOf
        out.ReversalOf = &k
    }
    return out
}
