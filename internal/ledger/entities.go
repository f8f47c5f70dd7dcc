package ledger

import (
    "strconv"
    "time"

    "github.com/govalues/money"
    "github.com/tinoosan/bookledger/internal/meta"
)

// AllBooks labels rows aggregated across every book. It is never a valid book id.
const AllBooks = "ALL-BOOKS"

// Side represents the accounting position of a posting.
type Side string

const (
    // SideDebit records a value on the debit side of an account.
    SideDebit Side = "debit"
    // SideCredit records a value on the credit side of an account.
    SideCredit Side = "credit"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
    if s == SideDebit {
        return SideCredit
    }
    return SideDebit
}

// AccountCode is a chart-of-accounts number such as 4300001.
type AccountCode int64

func (c AccountCode) String() string { return strconv.FormatInt(int64(c), 10) }

// Scope is the (book, fiscal year) partition entries and balances live in.
type Scope struct {
    Book string
    Year int
}

func (s Scope) String() string { return s.Book + "/" + strconv.Itoa(s.Year) }

// EntryKey identifies a journal entry. EntryID is unique within its scope.
type EntryKey struct {
    Book    string `json:"book"`
    Year    int    `json:"year"`
    EntryID int64  `json:"entry_id"`
}

func (k EntryKey) Scope() Scope { return Scope{Book: k.Book, Year: k.Year} }

func (k EntryKey) String() string {
    return k.Book + "/" + strconv.Itoa(k.Year) + "/" + strconv.FormatInt(k.EntryID, 10)
}

// Posting is one single-sided line of an entry. It carries exactly one account
// and one amount; Side says which column they belong to.
type Posting struct {
    LineID      int
    Side        Side
    Account     AccountCode
    Amount      money.Amount
    ConceptID   string
    Description string
}

// DebitPosting builds a posting on the debit side.
func DebitPosting(account AccountCode, amount money.Amount) Posting {
    return Posting{Side: SideDebit, Account: account, Amount: amount}
}

// CreditPosting builds a posting on the credit side.
func CreditPosting(account AccountCode, amount money.Amount) Posting {
    return Posting{Side: SideCredit, Account: account, Amount: amount}
}

// DebitAccount returns the account when the posting is a debit.
func (p Posting) DebitAccount() (AccountCode, bool) { return p.Account, p.Side == SideDebit }

// CreditAccount returns the account when the posting is a credit.
func (p Posting) CreditAccount() (AccountCode, bool) { return p.Account, p.Side == SideCredit }

// DebitAmount is the amount in the debit column (zero for credits).
func (p Posting) DebitAmount() money.Amount {
    if p.Side == SideDebit {
        return p.Amount
    }
    return Zero(p.Amount.Curr().Code())
}

// CreditAmount is the amount in the credit column (zero for debits).
func (p Posting) CreditAmount() money.Amount {
    if p.Side == SideCredit {
        return p.Amount
    }
    return Zero(p.Amount.Curr().Code())
}

// Signed returns +amount for debits and -amount for credits.
func (p Posting) Signed() money.Amount {
    if p.Side == SideCredit {
        return p.Amount.Neg()
    }
    return p.Amount
}

// Flip returns the posting moved to the opposite side.
func (p Posting) Flip() Posting {
    p.Side = p.Side.Opposite()
    return p
}

// PostingDraft is the two-column input shape: a debit account and amount, a
// credit account and amount, one of which is expected to be empty.
type PostingDraft struct {
    DebitAccount  AccountCode
    CreditAccount AccountCode
    DebitAmount   money.Amount
    CreditAmount  money.Amount
    ConceptID     string
    Description   string
}

// Debit builds a debit draft.
func Debit(account AccountCode, amount money.Amount) PostingDraft {
    return PostingDraft{DebitAccount: account, DebitAmount: amount}
}

// Credit builds a credit draft.
func Credit(account AccountCode, amount money.Amount) PostingDraft {
    return PostingDraft{CreditAccount: account, CreditAmount: amount}
}

// Draft converts a committed posting back to the two-column shape.
func (p Posting) Draft() PostingDraft {
    d := PostingDraft{ConceptID: p.ConceptID, Description: p.Description}
    if p.Side == SideDebit {
        d.DebitAccount, d.DebitAmount = p.Account, p.Amount
    } else {
        d.CreditAccount, d.CreditAmount = p.Account, p.Amount
    }
    return d
}

// JournalEntryDraft is the header of an entry waiting to be committed.
// EntryID 0 asks the store to allocate the next id of the scope.
type JournalEntryDraft struct {
    Book       string
    Year       int
    EntryID    int64
    Date       time.Time
    ReversalOf *EntryKey
    Metadata   meta.Metadata
}

// JournalEntry is one committed, balanced transaction.
type JournalEntry struct {
    Book    string
    Year    int
    EntryID int64
    Date    time.Time
    // ReversalOf is set when this entry reverses another one.
    ReversalOf *EntryKey
    Metadata   meta.Metadata
    Postings   []Posting
}

func (e JournalEntry) Key() EntryKey { return EntryKey{Book: e.Book, Year: e.Year, EntryID: e.EntryID} }

func (e JournalEntry) Scope() Scope { return Scope{Book: e.Book, Year: e.Year} }

// Month is the balance period month of the entry.
func (e JournalEntry) Month() int { return int(e.Date.Month()) }
