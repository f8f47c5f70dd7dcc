package postgres

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/govalues/money"
    "github.com/jackc/pgx/v5"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/meta"
)

// --- Entry writes ---

// InsertEntry inserts an entry and its postings in a transaction of its own.
func (s *Store) InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
    var out ledger.JournalEntry
    err := s.inTx(ctx, func(tx pgx.Tx) error {
        var err error
        out, err = insertEntry(ctx, tx, e)
        return err
    })
    return out, err
}

// DeleteEntry removes an entry (postings cascade) in a transaction of its own.
func (s *Store) DeleteEntry(ctx context.Context, key ledger.EntryKey) (ledger.JournalEntry, error) {
    var out ledger.JournalEntry
    err := s.inTx(ctx, func(tx pgx.Tx) error {
        var err error
        out, err = deleteEntry(ctx, tx, s.currency, key)
        return err
    })
    return out, err
}

// insertEntry allocates the entry id from entry_sequences when it is 0; an
// explicit id raises the sequence so later allocations never collide with it.
func insertEntry(ctx context.Context, q querier, e ledger.JournalEntry) (ledger.JournalEntry, error) {
    if err := lockScopeShared(ctx, q, e.Scope()); err != nil { return ledger.JournalEntry{}, err }

    var id int64
    if e.EntryID == 0 {
        err := q.QueryRow(ctx, `
            insert into entry_sequences (book, fiscal_year, last_id) values ($1, $2, 1)
            on conflict (book, fiscal_year) do update set last_id = entry_sequences.last_id + 1
            returning last_id
        `, e.Book, e.Year).Scan(&id)
        if err != nil { return ledger.JournalEntry{}, fmt.Errorf("allocate entry id: %w", err) }
        e.EntryID = id
    } else {
        if _, err := q.Exec(ctx, `
            insert into entry_sequences (book, fiscal_year, last_id) values ($1, $2, $3)
            on conflict (book, fiscal_year) do update set last_id = greatest(entry_sequences.last_id, excluded.last_id)
        `, e.Book, e.Year, e.EntryID); err != nil {
            return ledger.JournalEntry{}, fmt.Errorf("bump entry sequence: %w", err)
        }
    }

    md, err := e.Metadata.MarshalStableJSON()
    if err != nil { return ledger.JournalEntry{}, err }
    var revBook *string
    var revYear *int
    var revID *int64
    if e.ReversalOf != nil {
        revBook, revYear, revID = &e.ReversalOf.Book, &e.ReversalOf.Year, &e.ReversalOf.EntryID
    }
    if _, err := q.Exec(ctx, `
        insert into journal_entries (book, fiscal_year, entry_id, entry_date, reversal_book, reversal_year, reversal_entry_id, metadata)
        values ($1,$2,$3,$4,$5,$6,$7,$8)
    `, e.Book, e.Year, e.EntryID, e.Date, revBook, revYear, revID, md); err != nil {
        return ledger.JournalEntry{}, mapUnique(err)
    }

    b := &pgx.Batch{}
    for _, p := range e.Postings {
        var debit, credit *int64
        code := int64(p.Account)
        if p.Side == ledger.SideDebit {
            debit = &code
        } else {
            credit = &code
        }
        b.Queue(`
            insert into postings (book, fiscal_year, entry_id, line_id, debit_account, credit_account, amount, concept_id, description)
            values ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9)
        `, e.Book, e.Year, e.EntryID, p.LineID, debit, credit, ledger.FormatAmount(p.Amount), p.ConceptID, p.Description)
    }
    if err := q.SendBatch(ctx, b).Close(); err != nil {
        return ledger.JournalEntry{}, fmt.Errorf("insert postings: %w", err)
    }
    return e, nil
}

func deleteEntry(ctx context.Context, q querier, currency string, key ledger.EntryKey) (ledger.JournalEntry, error) {
    if err := lockScopeShared(ctx, q, key.Scope()); err != nil { return ledger.JournalEntry{}, err }
    e, err := loadEntry(ctx, q, currency, key)
    if err != nil { return ledger.JournalEntry{}, err }
    ct, err := q.Exec(ctx, `
        delete from journal_entries where book=$1 and fiscal_year=$2 and entry_id=$3
    `, key.Book, key.Year, key.EntryID)
    if err != nil { return ledger.JournalEntry{}, err }
    if ct.RowsAffected() == 0 { return ledger.JournalEntry{}, errs.ErrNotFound }
    return e, nil
}

// --- Entry reads ---

// Entry returns one entry with its postings in line order.
func (s *Store) Entry(ctx context.Context, key ledger.EntryKey) (ledger.JournalEntry, error) {
    return loadEntry(ctx, s.pool, s.currency, key)
}

// EntriesInScope returns every entry of the scope in entry id order.
func (s *Store) EntriesInScope(ctx context.Context, scope ledger.Scope) ([]ledger.JournalEntry, error) {
    return entriesInScope(ctx, s.pool, s.currency, scope)
}

// ReversalOf returns the key of the entry reversing key, if any.
func (s *Store) ReversalOf(ctx context.Context, key ledger.EntryKey) (ledger.EntryKey, bool, error) {
    out := ledger.EntryKey{}
    err := s.pool.QueryRow(ctx, `
        select book, fiscal_year, entry_id from journal_entries
        where reversal_book=$1 and reversal_year=$2 and reversal_entry_id=$3
    `, key.Book, key.Year, key.EntryID).Scan(&out.Book, &out.Year, &out.EntryID)
    if errors.Is(err, pgx.ErrNoRows) { return ledger.EntryKey{}, false, nil }
    if err != nil { return ledger.EntryKey{}, false, err }
    return out, true, nil
}

// NextEntryID peeks at the id the next allocation would return.
func (s *Store) NextEntryID(ctx context.Context, scope ledger.Scope) (int64, error) {
    var next int64
    err := s.pool.QueryRow(ctx, `
        select coalesce((select last_id from entry_sequences where book=$1 and fiscal_year=$2), 0) + 1
    `, scope.Book, scope.Year).Scan(&next)
    return next, err
}

// Scopes lists every scope holding entries or balances.
func (s *Store) Scopes(ctx context.Context) ([]ledger.Scope, error) {
    rows, err := s.pool.Query(ctx, `
        select book, fiscal_year from journal_entries
        union
        select book, fiscal_year from monthly_balances
        order by 1, 2
    `)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]ledger.Scope, 0)
    for rows.Next() {
        var sc ledger.Scope
        if err := rows.Scan(&sc.Book, &sc.Year); err != nil { return nil, err }
        out = append(out, sc)
    }
    return out, rows.Err()
}

const entryColumns = `book, fiscal_year, entry_id, entry_date, reversal_book, reversal_year, reversal_entry_id, metadata`

const postingColumns = `book, fiscal_year, entry_id, line_id, debit_account, credit_account, amount::text, concept_id, description`

func scanEntry(row pgx.Row) (ledger.JournalEntry, error) {
    var e ledger.JournalEntry
    var revBook *string
    var revYear *int
    var revID *int64
    var md []byte
    if err := row.Scan(&e.Book, &e.Year, &e.EntryID, &e.Date, &revBook, &revYear, &revID, &md); err != nil {
        return ledger.JournalEntry{}, err
    }
    e.Date = time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
    if revBook != nil && revYear != nil && revID != nil {
        e.ReversalOf = &ledger.EntryKey{Book: *revBook, Year: *revYear, EntryID: *revID}
    }
    e.Metadata = meta.New(nil)
    if len(md) > 0 {
        var m meta.Metadata
        if err := m.UnmarshalJSON(md); err == nil { e.Metadata = m }
    }
    return e, nil
}

// scanPosting returns the posting and the key of its entry.
func scanPosting(rows pgx.Rows, currency string) (ledger.EntryKey, ledger.Posting, error) {
    var k ledger.EntryKey
    var p ledger.Posting
    var debit, credit *int64
    var amount string
    if err := rows.Scan(&k.Book, &k.Year, &k.EntryID, &p.LineID, &debit, &credit, &amount, &p.ConceptID, &p.Description); err != nil {
        return k, p, err
    }
    switch {
    case debit != nil:
        p.Side, p.Account = ledger.SideDebit, ledger.AccountCode(*debit)
    case credit != nil:
        p.Side, p.Account = ledger.SideCredit, ledger.AccountCode(*credit)
    }
    amt, err := money.ParseAmount(currency, amount)
    if err != nil { return k, p, fmt.Errorf("posting %s line %d amount %q: %w", k, p.LineID, amount, err) }
    p.Amount = amt
    return k, p, nil
}

func loadEntry(ctx context.Context, q querier, currency string, key ledger.EntryKey) (ledger.JournalEntry, error) {
    e, err := scanEntry(q.QueryRow(ctx, `
        select `+entryColumns+` from journal_entries
        where book=$1 and fiscal_year=$2 and entry_id=$3
    `, key.Book, key.Year, key.EntryID))
    if errors.Is(err, pgx.ErrNoRows) { return ledger.JournalEntry{}, errs.ErrNotFound }
    if err != nil { return ledger.JournalEntry{}, err }

    rows, err := q.Query(ctx, `
        select `+postingColumns+` from postings
        where book=$1 and fiscal_year=$2 and entry_id=$3
        order by line_id
    `, key.Book, key.Year, key.EntryID)
    if err != nil { return ledger.JournalEntry{}, err }
    defer rows.Close()
    for rows.Next() {
        _, p, err := scanPosting(rows, currency)
        if err != nil { return ledger.JournalEntry{}, err }
        e.Postings = append(e.Postings, p)
    }
    return e, rows.Err()
}

func entriesInScope(ctx context.Context, q querier, currency string, scope ledger.Scope) ([]ledger.JournalEntry, error) {
    rows, err := q.Query(ctx, `
        select `+entryColumns+` from journal_entries
        where book=$1 and fiscal_year=$2
        order by entry_id
    `, scope.Book, scope.Year)
    if err != nil { return nil, err }
    entries := make([]ledger.JournalEntry, 0)
    for rows.Next() {
        e, err := scanEntry(rows)
        if err != nil { rows.Close(); return nil, err }
        entries = append(entries, e)
    }
    rows.Close()
    if err := rows.Err(); err != nil { return nil, err }
    if len(entries) == 0 { return entries, nil }

    idx := make(map[int64]*ledger.JournalEntry, len(entries))
    for i := range entries { idx[entries[i].EntryID] = &entries[i] }
    prows, err := q.Query(ctx, `
        select `+postingColumns+` from postings
        where book=$1 and fiscal_year=$2
        order by entry_id, line_id
    `, scope.Book, scope.Year)
    if err != nil { return nil, err }
    defer prows.Close()
    for prows.Next() {
        k, p, err := scanPosting(prows, currency)
        if err != nil { return nil, err }
        if e := idx[k.EntryID]; e != nil {
            e.Postings = append(e.Postings, p)
        }
    }
    return entries, prows.Err()
}

// --- Idempotency ---

// EntryByIdempotencyKey resolves a key to the entry it created and the body hash it was saved with.
func (s *Store) EntryByIdempotencyKey(ctx context.Context, key string) (ledger.EntryKey, string, bool, error) {
    var k ledger.EntryKey
    var hash string
    err := s.pool.QueryRow(ctx, `
        select book, fiscal_year, entry_id, request_hash from entry_idempotency where key=$1
    `, key).Scan(&k.Book, &k.Year, &k.EntryID, &hash)
    if errors.Is(err, pgx.ErrNoRows) { return ledger.EntryKey{}, "", false, nil }
    if err != nil { return ledger.EntryKey{}, "", false, err }
    return k, hash, true, nil
}

// SaveIdempotencyKey stores the mapping unless the key is already taken.
func (s *Store) SaveIdempotencyKey(ctx context.Context, key, hash string, entry ledger.EntryKey) error {
    _, err := s.pool.Exec(ctx, `
        insert into entry_idempotency (key, request_hash, book, fiscal_year, entry_id)
        values ($1,$2,$3,$4,$5)
        on conflict (key) do nothing
    `, key, hash, entry.Book, entry.Year, entry.EntryID)
    return err
}
