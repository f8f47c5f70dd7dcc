package memory

import (
    "context"
    "time"

    "github.com/tinoosan/bookledger/internal/ledger"
)

// AddMonthly adds each delta to its row, creating missing rows and dropping
// rows whose totals both return to zero. The batch applies fully or not at all.
func (s *Store) AddMonthly(_ context.Context, deltas []ledger.MonthlyBalance) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    staged := make(map[ledger.BalanceKey]ledger.MonthlyBalance, len(deltas))
    for _, d := range deltas {
        k := d.Key()
        cur, ok := staged[k]
        if !ok {
            cur, ok = s.balances[k]
        }
        if !ok {
            staged[k] = d
            continue
        }
        debit, err := cur.Debit.Add(d.Debit)
        if err != nil {
            return err
        }
        credit, err := cur.Credit.Add(d.Credit)
        if err != nil {
            return err
        }
        cur.Debit, cur.Credit = debit, credit
        staged[k] = cur
    }
    for k, row := range staged {
        if row.IsZero() {
            delete(s.balances, k)
            continue
        }
        s.balances[k] = row
    }
    return nil
}

// ReplaceMonthly swaps every balance row of scope for rows.
func (s *Store) ReplaceMonthly(_ context.Context, scope ledger.Scope, rows []ledger.MonthlyBalance) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for k := range s.balances {
        if k.Book == scope.Book && k.Year == scope.Year {
            delete(s.balances, k)
        }
    }
    for _, r := range rows {
        if r.IsZero() {
            continue
        }
        s.balances[r.Key()] = r
    }
    return nil
}

// MonthlyBalances returns the stored rows matching f, in no particular order.
// In the across-books mode every book is returned; grouping is the caller's job.
func (s *Store) MonthlyBalances(_ context.Context, f ledger.BalanceFilter) ([]ledger.MonthlyBalance, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]ledger.MonthlyBalance, 0)
    for _, b := range s.balances {
        if f.Matches(b) {
            out = append(out, b)
        }
    }
    return out, nil
}

// StatementPostings returns every posting on account that passes f, joined
// with its entry header. Order is left to the caller.
func (s *Store) StatementPostings(_ context.Context, account ledger.AccountCode, f ledger.StatementFilter) ([]ledger.PostingRef, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]ledger.PostingRef, 0)
    for _, e := range s.entries {
        if f.Book != "" && f.Book != ledger.AllBooks && e.Book != f.Book {
            continue
        }
        if f.Year != 0 && e.Year != f.Year {
            continue
        }
        if !inRange(e.Date, f.From, f.To) {
            continue
        }
        for _, p := range e.Postings {
            if p.Account != account {
                continue
            }
            out = append(out, ledger.PostingRef{Book: e.Book, Year: e.Year, EntryID: e.EntryID, Date: e.Date, Posting: p})
        }
    }
    return out, nil
}

func inRange(d time.Time, from, to *time.Time) bool {
    if from != nil && d.Before(*from) {
        return false
    }
    if to != nil && d.After(*to) {
        return false
    }
    return true
}
