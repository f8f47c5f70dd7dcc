package ledger

import (
    "time"

    "github.com/govalues/money"
)

// MonthlyBalance holds the debit and credit totals of one account in one book
// for one month of a fiscal year. Rows are derived from postings only.
type MonthlyBalance struct {
    Account AccountCode
    Book    string
    Year    int
    Month   int
    Debit   money.Amount
    Credit  money.Amount
}

// Net is debit minus credit.
func (b MonthlyBalance) Net() money.Amount {
    n, err := b.Debit.Sub(b.Credit)
    if err != nil {
        return Zero(b.Debit.Curr().Code())
    }
    return n
}

// IsZero reports whether both totals are zero.
func (b MonthlyBalance) IsZero() bool { return b.Debit.IsZero() && b.Credit.IsZero() }

// BalanceKey identifies a monthly balance row.
type BalanceKey struct {
    Account AccountCode
    Book    string
    Year    int
    Month   int
}

func (b MonthlyBalance) Key() BalanceKey {
    return BalanceKey{Account: b.Account, Book: b.Book, Year: b.Year, Month: b.Month}
}

// BalanceFilter selects monthly balances. Zero values mean "all".
// Book == AllBooks sums across books.
type BalanceFilter struct {
    Book    string
    Year    int
    Month   int
    Account AccountCode
}

// Grouped reports whether the filter asks for the across-books aggregation.
func (f BalanceFilter) Grouped() bool { return f.Book == AllBooks }

// Matches reports whether a stored row passes the filter. The book is ignored
// in grouped mode.
func (f BalanceFilter) Matches(b MonthlyBalance) bool {
    if f.Book != "" && !f.Grouped() && b.Book != f.Book {
        return false
    }
    if f.Year != 0 && b.Year != f.Year {
        return false
    }
    if f.Month != 0 && b.Month != f.Month {
        return false
    }
    if f.Account != 0 && b.Account != f.Account {
        return false
    }
    return true
}

// StatementFilter narrows an account statement. Dates bound the entry date,
// both ends inclusive.
type StatementFilter struct {
    Book string
    Year int
    From *time.Time
    To   *time.Time
}

// StatementLine is one posting of the account with the balance after it.
type StatementLine struct {
    Book           string
    Year           int
    EntryID        int64
    LineID         int
    Date           time.Time
    Side           Side
    Account        AccountCode
    Amount         money.Amount
    ConceptID      string
    Description    string
    RunningBalance money.Amount
}

// PostingRef is a posting together with the header fields of its entry.
type PostingRef struct {
    Book    string
    Year    int
    EntryID int64
    Date    time.Time
    Posting Posting
}
