package postgres

// Package postgres provides a pgx-backed ledger store. Entries, postings and
// monthly balances live in one database so the posting engine can commit an
// entry and its balance updates in a single transaction.
//
// Schema migrations are embedded under migrations/ and applied by Migrate.

import (
    "context"
    "errors"
    "strings"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgconn"
    "github.com/jackc/pgx/v5/pgxpool"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/service/balance"
    "github.com/tinoosan/bookledger/internal/service/journal"
)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
    Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
    Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
    QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
    SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
    pool     *pgxpool.Pool
    currency string
}

// Open establishes a pgx pool using the provided connection string. Amounts
// read back from numeric columns are expressed in currency.
func Open(ctx context.Context, dsn, currency string) (*Store, error) {
    cfg, err := pgxpool.ParseConfig(dsn)
    if err != nil { return nil, err }
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil { return nil, err }
    if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
    currency = strings.ToUpper(strings.TrimSpace(currency))
    if currency == "" { currency = "EUR" }
    return &Store{pool: pool, currency: currency}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Transactions ---

// Tx wraps a pgx.Tx. It serves both the posting engine (journal.Tx) and
// Recompute (balance.ScopeTx).
type Tx struct {
    tx       pgx.Tx
    currency string
}

// BeginTx starts a transaction for one commit or delete.
func (s *Store) BeginTx(ctx context.Context) (journal.Tx, error) {
    tx, err := s.pool.Begin(ctx)
    if err != nil { return nil, err }
    return &Tx{tx: tx, currency: s.currency}, nil
}

// LockScope starts a transaction holding the scope's exclusive advisory lock.
// Commits and deletes take the same lock in shared mode, so they wait for the
// returned transaction to end.
func (s *Store) LockScope(ctx context.Context, scope ledger.Scope) (balance.ScopeTx, error) {
    tx, err := s.pool.Begin(ctx)
    if err != nil { return nil, err }
    if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock(hashtext($1), $2::int)`, scope.Book, scope.Year); err != nil {
        _ = tx.Rollback(ctx)
        return nil, err
    }
    return &Tx{tx: tx, currency: s.currency}, nil
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (t *Tx) InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
    return insertEntry(ctx, t.tx, e)
}

func (t *Tx) DeleteEntry(ctx context.Context, key ledger.EntryKey) (ledger.JournalEntry, error) {
    return deleteEntry(ctx, t.tx, t.currency, key)
}

func (t *Tx) AddMonthly(ctx context.Context, deltas []ledger.MonthlyBalance) error {
    return addMonthly(ctx, t.tx, deltas)
}

func (t *Tx) EntriesInScope(ctx context.Context, scope ledger.Scope) ([]ledger.JournalEntry, error) {
    return entriesInScope(ctx, t.tx, t.currency, scope)
}

func (t *Tx) ReplaceMonthly(ctx context.Context, scope ledger.Scope, rows []ledger.MonthlyBalance) error {
    return replaceMonthly(ctx, t.tx, scope, rows)
}

// inTx runs fn in its own transaction. Pool-level writes use it so each call
// is atomic on its own.
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
    tx, err := s.pool.Begin(ctx)
    if err != nil { return err }
    if err := fn(tx); err != nil {
        _ = tx.Rollback(ctx)
        return err
    }
    return tx.Commit(ctx)
}

// lockScopeShared blocks while Recompute holds the scope.
func lockScopeShared(ctx context.Context, q querier, scope ledger.Scope) error {
    _, err := q.Exec(ctx, `select pg_advisory_xact_lock_shared(hashtext($1), $2::int)`, scope.Book, scope.Year)
    return err
}

// mapUnique turns unique violations into the ledger's uniqueness errors.
func mapUnique(err error) error {
    var pgErr *pgconn.PgError
    if errors.As(err, &pgErr) && pgErr.Code == "23505" {
        switch pgErr.ConstraintName {
        case "journal_entries_reversal_uq":
            return errs.ErrAlreadyReversed
        default:
            return errs.ErrDuplicateEntry
        }
    }
    return err
}
