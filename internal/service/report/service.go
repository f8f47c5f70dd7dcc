// Package report answers the two read paths of the ledger: monthly balance
// reports and running-balance account statements.
package report

import (
    "context"
    "fmt"
    "sort"
    "strings"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/slug"
)

// Repo defines the store reads the reports are built from.
type Repo interface {
    // MonthlyBalances returns rows matching f in any order. In grouped mode it
    // returns every book's rows; summing is done here.
    MonthlyBalances(ctx context.Context, f ledger.BalanceFilter) ([]ledger.MonthlyBalance, error)
    // StatementPostings returns the account's postings joined to their entries, in any order.
    StatementPostings(ctx context.Context, account ledger.AccountCode, f ledger.StatementFilter) ([]ledger.PostingRef, error)
}

type Service interface {
    GetBalances(ctx context.Context, f ledger.BalanceFilter) ([]ledger.MonthlyBalance, error)
    GetStatement(ctx context.Context, account ledger.AccountCode, f ledger.StatementFilter) ([]ledger.StatementLine, error)
}

type service struct {
    repo     Repo
    currency string
}

func New(repo Repo, currency string) Service {
    currency = strings.ToUpper(strings.TrimSpace(currency))
    if currency == "" {
        currency = "EUR"
    }
    return &service{repo: repo, currency: currency}
}

// GetBalances returns monthly balances ordered by year desc, month desc,
// account asc, book asc. When one account's full year is requested every
// series is completed to twelve months.
func (s *service) GetBalances(ctx context.Context, f ledger.BalanceFilter) ([]ledger.MonthlyBalance, error) {
    if err := validBalanceFilter(f); err != nil {
        return nil, err
    }
    rows, err := s.repo.MonthlyBalances(ctx, f)
    if err != nil {
        return nil, errs.Storage("monthly balances", err)
    }
    if f.Grouped() {
        if rows, err = groupAcrossBooks(rows); err != nil {
            return nil, err
        }
    }
    if f.Account != 0 && f.Year != 0 && f.Month == 0 {
        rows = s.completeMonths(rows, f)
    }
    sortBalances(rows)
    return rows, nil
}

// groupAcrossBooks sums rows per (account, year, month) under the AllBooks label.
func groupAcrossBooks(rows []ledger.MonthlyBalance) ([]ledger.MonthlyBalance, error) {
    sums := make(map[ledger.BalanceKey]ledger.MonthlyBalance, len(rows))
    for _, r := range rows {
        r.Book = ledger.AllBooks
        cur, ok := sums[r.Key()]
        if !ok {
            sums[r.Key()] = r
            continue
        }
        var err error
        if cur.Debit, err = cur.Debit.Add(r.Debit); err != nil {
            return nil, fmt.Errorf("group %s: %w", r.Account, err)
        }
        if cur.Credit, err = cur.Credit.Add(r.Credit); err != nil {
            return nil, fmt.Errorf("group %s: %w", r.Account, err)
        }
        sums[r.Key()] = cur
    }
    out := make([]ledger.MonthlyBalance, 0, len(sums))
    for _, r := range sums {
        out = append(out, r)
    }
    return out, nil
}

// completeMonths fills months 1..12 of every (account, book) series with zero rows.
func (s *service) completeMonths(rows []ledger.MonthlyBalance, f ledger.BalanceFilter) []ledger.MonthlyBalance {
    type series struct {
        account ledger.AccountCode
        book    string
    }
    have := make(map[ledger.BalanceKey]bool, len(rows))
    seen := make(map[series]bool)
    for _, r := range rows {
        have[r.Key()] = true
        seen[series{r.Account, r.Book}] = true
    }
    if len(seen) == 0 {
        book := f.Book
        if book == "" {
            book = ledger.AllBooks
        }
        seen[series{f.Account, book}] = true
    }
    zero := ledger.Zero(s.currency)
    for sr := range seen {
        for m := 1; m <= 12; m++ {
            k := ledger.BalanceKey{Account: sr.account, Book: sr.book, Year: f.Year, Month: m}
            if have[k] {
                continue
            }
            rows = append(rows, ledger.MonthlyBalance{Account: sr.account, Book: sr.book, Year: f.Year, Month: m, Debit: zero, Credit: zero})
        }
    }
    return rows
}

func sortBalances(rows []ledger.MonthlyBalance) {
    sort.Slice(rows, func(i, j int) bool {
        a, b := rows[i], rows[j]
        if a.Year != b.Year {
            return a.Year > b.Year
        }
        if a.Month != b.Month {
            return a.Month > b.Month
        }
        if a.Account != b.Account {
            return a.Account < b.Account
        }
        return a.Book < b.Book
    })
}

func validBalanceFilter(f ledger.BalanceFilter) error {
    if f.Book != "" && !f.Grouped() && !slug.IsBookID(f.Book) {
        return fmt.Errorf("%w: book %q", errs.ErrInvalid, f.Book)
    }
    if f.Year < 0 || f.Year > 9999 {
        return fmt.Errorf("%w: year %d", errs.ErrInvalid, f.Year)
    }
    if f.Month < 0 || f.Month > 12 {
        return fmt.Errorf("%w: month %d", errs.ErrInvalid, f.Month)
    }
    if f.Account < 0 {
        return fmt.Errorf("%w: account %d", errs.ErrInvalid, f.Account)
    }
    return nil
}
