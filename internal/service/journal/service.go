// Package journal is the posting engine: it validates posting batches, commits
// them as atomic journal entries, deletes entries, and keeps monthly balances
// in step through the balance aggregator.
package journal

import (
    "context"
    "errors"
    "log/slog"
    "strings"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/events"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/service/balance"
)

// Repo defines read operations needed by the engine.
type Repo interface {
    Entry(ctx context.Context, key ledger.EntryKey) (ledger.JournalEntry, error)
    ReversalOf(ctx context.Context, key ledger.EntryKey) (ledger.EntryKey, bool, error)
    NextEntryID(ctx context.Context, scope ledger.Scope) (int64, error)
}

// Writer defines write operations needed by the engine.
//
// InsertEntry allocates the entry id when it is 0 and returns
// errs.ErrDuplicateEntry or errs.ErrAlreadyReversed from its uniqueness guards.
// DeleteEntry returns the removed entry or errs.ErrNotFound.
type Writer interface {
    InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
    DeleteEntry(ctx context.Context, key ledger.EntryKey) (ledger.JournalEntry, error)
    AddMonthly(ctx context.Context, deltas []ledger.MonthlyBalance) error
}

// Tx is a store transaction covering entry writes and balance updates.
type Tx interface {
    Writer
    Commit(ctx context.Context) error
    Rollback(ctx context.Context) error
}

// TxBeginner is implemented by stores with multi-statement transactions.
// Stores without it get compensating rollbacks instead.
type TxBeginner interface {
    BeginTx(ctx context.Context) (Tx, error)
}

// AccountChecker is the optional chart-of-accounts lookup.
type AccountChecker interface {
    AccountExists(ctx context.Context, code ledger.AccountCode) (bool, error)
}

// Service exposes the posting engine.
type Service interface {
    Validate(ctx context.Context, draft ledger.JournalEntryDraft, postings []ledger.PostingDraft) (ledger.JournalEntry, error)
    Commit(ctx context.Context, draft ledger.JournalEntryDraft, postings []ledger.PostingDraft) (ledger.JournalEntry, error)
    Delete(ctx context.Context, key ledger.EntryKey) error
    Get(ctx context.Context, key ledger.EntryKey) (ledger.JournalEntry, error)
    NextEntryID(ctx context.Context, scope ledger.Scope) (int64, error)
    Reverse(ctx context.Context, key ledger.EntryKey, opts ReverseOptions) (ledger.JournalEntry, error)
    Correct(ctx context.Context, key ledger.EntryKey, opts ReverseOptions, postings []ledger.PostingDraft) (ledger.JournalEntry, ledger.JournalEntry, error)
}

// Config carries the engine's collaborators and policy.
type Config struct {
    // Currency of every amount in the ledger. Defaults to EUR.
    Currency string
    // StrictAccounts rejects postings to codes the Accounts checker does not know.
    // Without a checker it has no effect.
    StrictAccounts bool
    Accounts       AccountChecker
    Publisher      events.Publisher
    Logger         *slog.Logger
}

type service struct {
    repo      Repo
    writer    Writer
    agg       *balance.Aggregator
    currency  string
    strict    bool
    accounts  AccountChecker
    publisher events.Publisher
    log       *slog.Logger
}

func New(repo Repo, writer Writer, agg *balance.Aggregator, cfg Config) Service {
    s := &service{
        repo:      repo,
        writer:    writer,
        agg:       agg,
        currency:  strings.ToUpper(strings.TrimSpace(cfg.Currency)),
        strict:    cfg.StrictAccounts,
        accounts:  cfg.Accounts,
        publisher: cfg.Publisher,
        log:       cfg.Logger,
    }
    if s.currency == "" {
        s.currency = "EUR"
    }
    if s.publisher == nil {
        s.publisher = events.Noop{}
    }
    if s.log == nil {
        s.log = slog.Default()
    }
    return s
}

// Commit validates the batch and persists it as one entry together with its
// balance updates. Nothing is written when validation fails.
func (s *service) Commit(ctx context.Context, draft ledger.JournalEntryDraft, postings []ledger.PostingDraft) (ledger.JournalEntry, error) {
    entry, err := s.Validate(ctx, draft, postings)
    if err != nil {
        commitRejections.WithLabelValues(rejectionReason(err)).Inc()
        return ledger.JournalEntry{}, err
    }
    unlock := s.agg.LockShared(entry.Scope())
    defer unlock()

    saved, err := s.persist(ctx, entry)
    if err != nil {
        if errors.Is(err, errs.ErrDuplicateEntry) || errors.Is(err, errs.ErrAlreadyReversed) {
            commitRejections.WithLabelValues(rejectionReason(err)).Inc()
        }
        return ledger.JournalEntry{}, err
    }
    entriesCommitted.Inc()
    s.log.Debug("entry committed", "book", saved.Book, "year", saved.Year, "entry_id", saved.EntryID, "postings", len(saved.Postings))
    s.publish(ctx, events.EntryCommitted, saved)
    return saved, nil
}

func (s *service) persist(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
    if tb, ok := s.writer.(TxBeginner); ok {
        var saved ledger.JournalEntry
        err := s.inTx(ctx, tb, func(tx Tx) error {
            var err error
            if saved, err = tx.InsertEntry(ctx, entry); err != nil {
                return entryErr(err, entry.Key(), "insert entry")
            }
            return errs.Storage("apply balances", s.agg.WithStore(tx).ApplyEntry(ctx, saved, balance.Apply))
        })
        return saved, err
    }

    saved, err := s.writer.InsertEntry(ctx, entry)
    if err != nil {
        return ledger.JournalEntry{}, entryErr(err, entry.Key(), "insert entry")
    }
    if err := s.agg.WithStore(s.writer).ApplyEntry(ctx, saved, balance.Apply); err != nil {
        return ledger.JournalEntry{}, s.compensate(ctx, "commit", saved.Key(), err, func(cctx context.Context) error {
            _, derr := s.writer.DeleteEntry(cctx, saved.Key())
            return derr
        })
    }
    return saved, nil
}

// Delete removes an entry and subtracts its postings from the balances.
func (s *service) Delete(ctx context.Context, key ledger.EntryKey) error {
    if err := validKey(key); err != nil {
        return err
    }
    unlock := s.agg.LockShared(key.Scope())
    defer unlock()

    var removed ledger.JournalEntry
    if tb, ok := s.writer.(TxBeginner); ok {
        err := s.inTx(ctx, tb, func(tx Tx) error {
            var err error
            if removed, err = tx.DeleteEntry(ctx, key); err != nil {
                return entryErr(err, key, "delete entry")
            }
            return errs.Storage("revert balances", s.agg.WithStore(tx).ApplyEntry(ctx, removed, balance.Revert))
        })
        if err != nil {
            return err
        }
    } else {
        var err error
        if removed, err = s.writer.DeleteEntry(ctx, key); err != nil {
            return entryErr(err, key, "delete entry")
        }
        if err := s.agg.WithStore(s.writer).ApplyEntry(ctx, removed, balance.Revert); err != nil {
            return s.compensate(ctx, "delete", key, err, func(cctx context.Context) error {
                _, ierr := s.writer.InsertEntry(cctx, removed)
                return ierr
            })
        }
    }
    entriesDeleted.Inc()
    s.log.Debug("entry deleted", "book", key.Book, "year", key.Year, "entry_id", key.EntryID)
    s.publish(ctx, events.EntryDeleted, removed)
    return nil
}

func (s *service) Get(ctx context.Context, key ledger.EntryKey) (ledger.JournalEntry, error) {
    if err := validKey(key); err != nil {
        return ledger.JournalEntry{}, err
    }
    e, err := s.repo.Entry(ctx, key)
    if err != nil {
        return ledger.JournalEntry{}, entryErr(err, key, "get entry")
    }
    return e, nil
}

// NextEntryID is advisory: the store allocates the real id at insert time.
func (s *service) NextEntryID(ctx context.Context, scope ledger.Scope) (int64, error) {
    if err := validScope(scope); err != nil {
        return 0, err
    }
    id, err := s.repo.NextEntryID(ctx, scope)
    if err != nil {
        return 0, errs.Storage("next entry id", err)
    }
    return id, nil
}

// inTx runs fn in a store transaction, rolling back unless fn and the commit succeed.
func (s *service) inTx(ctx context.Context, tb TxBeginner, fn func(Tx) error) error {
    tx, err := tb.BeginTx(ctx)
    if err != nil {
        return errs.Storage("begin tx", err)
    }
    if err := fn(tx); err != nil {
        if rerr := tx.Rollback(context.WithoutCancel(ctx)); rerr != nil {
            s.log.Warn("rollback failed", "err", rerr)
        }
        return err
    }
    if err := tx.Commit(ctx); err != nil {
        return errs.Storage("commit tx", err)
    }
    return nil
}

// compensate undoes the first half of a two-step write after the balance
// update failed. If the undo fails too, the store is inconsistent.
func (s *service) compensate(ctx context.Context, op string, key ledger.EntryKey, cause error, undo func(context.Context) error) error {
    compensations.WithLabelValues(op).Inc()
    s.log.Warn("balance update failed, compensating", "op", op, "book", key.Book, "year", key.Year, "entry_id", key.EntryID, "err", cause)
    if uerr := undo(context.WithoutCancel(ctx)); uerr != nil {
        inconsistentState.Inc()
        s.log.Error("compensation failed, ledger is inconsistent", "op", op, "book", key.Book, "year", key.Year, "entry_id", key.EntryID, "err", uerr, "cause", cause)
        ie := errs.Entry(errs.ErrInconsistentState, key.Book, key.Year, key.EntryID)
        ie.Err = errors.Join(cause, uerr)
        return ie
    }
    return errs.Storage("apply balances", cause)
}

func (s *service) publish(ctx context.Context, typ string, e ledger.JournalEntry) {
    ev := events.NewEntryEvent(typ, e)
    if err := s.publisher.Publish(ctx, ev); err != nil {
        s.log.Warn("event publish failed", "type", typ, "book", e.Book, "year", e.Year, "entry_id", e.EntryID, "err", err)
    }
}

// entryErr enriches store sentinels with the entry key and wraps the rest
// as storage failures.
func entryErr(err error, key ledger.EntryKey, op string) error {
    for _, kind := range []error{errs.ErrDuplicateEntry, errs.ErrNotFound, errs.ErrAlreadyReversed} {
        if errors.Is(err, kind) {
            var ee *errs.EntryError
            if errors.As(err, &ee) {
                return err
            }
            return errs.Entry(kind, key.Book, key.Year, key.EntryID)
        }
    }
    return errs.Storage(op, err)
}
