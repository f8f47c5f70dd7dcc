// Package balance maintains monthly balances: per account, book, fiscal year
// and month debit/credit totals derived from committed postings.
package balance

import (
    "context"
    "fmt"
    "log/slog"
    "sort"
    "time"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
)

// Sign selects whether postings are added to or removed from the balances.
type Sign int

const (
    Apply  Sign = 1
    Revert Sign = -1
)

// Store applies balance deltas. AddMonthly must add each delta to the
// existing row in one atomic statement (insert when absent) and drop rows
// whose totals both reach zero.
type Store interface {
    AddMonthly(ctx context.Context, deltas []ledger.MonthlyBalance) error
}

// Log is the posting log and the balance table seen by Recompute.
type Log interface {
    EntriesInScope(ctx context.Context, scope ledger.Scope) ([]ledger.JournalEntry, error)
    ReplaceMonthly(ctx context.Context, scope ledger.Scope, rows []ledger.MonthlyBalance) error
    Scopes(ctx context.Context) ([]ledger.Scope, error)
}

// ScopeTx is a store transaction holding an exclusive lock on one scope.
type ScopeTx interface {
    EntriesInScope(ctx context.Context, scope ledger.Scope) ([]ledger.JournalEntry, error)
    ReplaceMonthly(ctx context.Context, scope ledger.Scope, rows []ledger.MonthlyBalance) error
    Commit(ctx context.Context) error
    Rollback(ctx context.Context) error
}

// ScopeLocker is implemented by stores that can lock a scope across processes.
type ScopeLocker interface {
    LockScope(ctx context.Context, scope ledger.Scope) (ScopeTx, error)
}

// Aggregator computes and applies balance deltas and rebuilds balances.
type Aggregator struct {
    store       Store
    log         Log
    locks       *ScopeLocks
    logger      *slog.Logger
    parallelism int
}

// New constructs an aggregator. parallelism bounds RecomputeAll; values < 1 mean 1.
func New(store Store, log Log, logger *slog.Logger, parallelism int) *Aggregator {
    if logger == nil {
        logger = slog.Default()
    }
    if parallelism < 1 {
        parallelism = 1
    }
    return &Aggregator{store: store, log: log, locks: NewScopeLocks(), logger: logger, parallelism: parallelism}
}

// WithStore returns a copy writing deltas to st, sharing the scope locks.
// The posting engine uses it to apply balances inside its transaction.
func (a *Aggregator) WithStore(st Store) *Aggregator {
    cp := *a
    cp.store = st
    return &cp
}

// LockShared holds scope in shared mode until the returned func is called.
// Commits and deletes hold it; Recompute holds it exclusively.
func (a *Aggregator) LockShared(scope ledger.Scope) func() { return a.locks.RLock(scope) }

// Deltas groups postings by (account, month). An account that appears on
// both sides accumulates each side separately. The period year is the
// entry's fiscal year, only the month of date is used.
func Deltas(book string, year int, date time.Time, postings []ledger.Posting, sign Sign) ([]ledger.MonthlyBalance, error) {
    month := int(date.Month())
    acc := make(map[ledger.AccountCode]*ledger.MonthlyBalance)
    order := make([]ledger.AccountCode, 0, len(postings))
    for _, p := range postings {
        row, ok := acc[p.Account]
        if !ok {
            zero := ledger.Zero(p.Amount.Curr().Code())
            row = &ledger.MonthlyBalance{Account: p.Account, Book: book, Year: year, Month: month, Debit: zero, Credit: zero}
            acc[p.Account] = row
            order = append(order, p.Account)
        }
        amt := p.Amount
        if sign == Revert {
            amt = amt.Neg()
        }
        var err error
        switch p.Side {
        case ledger.SideDebit:
            row.Debit, err = row.Debit.Add(amt)
        case ledger.SideCredit:
            row.Credit, err = row.Credit.Add(amt)
        default:
            err = fmt.Errorf("%w: posting side %q", errs.ErrMalformedPosting, p.Side)
        }
        if err != nil {
            return nil, fmt.Errorf("account %s: %w", p.Account, err)
        }
    }
    sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
    out := make([]ledger.MonthlyBalance, 0, len(order))
    for _, code := range order {
        out = append(out, *acc[code])
    }
    return out, nil
}

// ApplyPostings adds (or with Revert, subtracts) postings to the monthly
// balances of their accounts.
func (a *Aggregator) ApplyPostings(ctx context.Context, book string, year int, date time.Time, postings []ledger.Posting, sign Sign) error {
    deltas, err := Deltas(book, year, date, postings, sign)
    if err != nil {
        return err
    }
    if len(deltas) == 0 {
        return nil
    }
    return a.store.AddMonthly(ctx, deltas)
}

// ApplyEntry is ApplyPostings for a whole entry.
func (a *Aggregator) ApplyEntry(ctx context.Context, e ledger.JournalEntry, sign Sign) error {
    return a.ApplyPostings(ctx, e.Book, e.Year, e.Date, e.Postings, sign)
}

// Fold replays entries forward and returns the resulting non-zero rows,
// ordered by account then month.
func Fold(entries []ledger.JournalEntry) ([]ledger.MonthlyBalance, error) {
    rows := make(map[ledger.BalanceKey]ledger.MonthlyBalance)
    for _, e := range entries {
        deltas, err := Deltas(e.Book, e.Year, e.Date, e.Postings, Apply)
        if err != nil {
            return nil, fmt.Errorf("entry %s: %w", e.Key(), err)
        }
        for _, d := range deltas {
            cur, ok := rows[d.Key()]
            if !ok {
                rows[d.Key()] = d
                continue
            }
            if cur, err = add(cur, d); err != nil {
                return nil, fmt.Errorf("entry %s: %w", e.Key(), err)
            }
            rows[d.Key()] = cur
        }
    }
    out := make([]ledger.MonthlyBalance, 0, len(rows))
    for _, r := range rows {
        if r.IsZero() {
            continue
        }
        out = append(out, r)
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Account != out[j].Account {
            return out[i].Account < out[j].Account
        }
        if out[i].Book != out[j].Book {
            return out[i].Book < out[j].Book
        }
        if out[i].Year != out[j].Year {
            return out[i].Year < out[j].Year
        }
        return out[i].Month < out[j].Month
    })
    return out, nil
}

func add(a, b ledger.MonthlyBalance) (ledger.MonthlyBalance, error) {
    var err error
    if a.Debit, err = a.Debit.Add(b.Debit); err != nil {
        return a, err
    }
    if a.Credit, err = a.Credit.Add(b.Credit); err != nil {
        return a, err
    }
    return a, nil
}
