package v1

import (
    "encoding/json"
    "time"

    "github.com/tinoosan/bookledger/internal/chart"
    "github.com/tinoosan/bookledger/internal/ledger"
)

const dateLayout = "2006-01-02"

type postEntryRequest struct {
    Book     string            `json:"book"`
    Year     int               `json:"year"`
    EntryID  int64             `json:"entry_id,omitempty"`
    Date     string            `json:"date"`
    Metadata map[string]string `json:"metadata,omitempty"`
    Postings []postingRequest  `json:"postings"`
}

// postingRequest is the two-column line shape. Exactly one side is expected
// to be filled; the engine reports the line otherwise.
type postingRequest struct {
    DebitAccount  int64       `json:"debit_account,omitempty"`
    DebitAmount   json.Number `json:"debit_amount,omitempty"`
    CreditAccount int64       `json:"credit_account,omitempty"`
    CreditAmount  json.Number `json:"credit_amount,omitempty"`
    ConceptID     string      `json:"concept_id,omitempty"`
    Description   string      `json:"description,omitempty"`
}

// reverseRequest is optional on reverse; every field falls back to the original entry.
type reverseRequest struct {
    Date   string `json:"date,omitempty"`
    Year   int    `json:"year,omitempty"`
    Reason string `json:"reason,omitempty"`
}

type correctRequest struct {
    reverseRequest
    Postings []postingRequest `json:"postings"`
}

type recomputeRequest struct {
    Book string `json:"book,omitempty"`
    Year int    `json:"year,omitempty"`
    All  bool   `json:"all,omitempty"`
}

type entryResponse struct {
    Book       string            `json:"book"`
    Year       int               `json:"year"`
    EntryID    int64             `json:"entry_id"`
    Date       string            `json:"date"`
    ReversalOf *ledger.EntryKey  `json:"reversal_of,omitempty"`
    Metadata   map[string]string `json:"metadata,omitempty"`
    Postings   []postingResponse `json:"postings"`
}

type postingResponse struct {
    LineID        int    `json:"line_id"`
    DebitAccount  int64  `json:"debit_account,omitempty"`
    DebitAmount   string `json:"debit_amount,omitempty"`
    CreditAccount int64  `json:"credit_account,omitempty"`
    CreditAmount  string `json:"credit_amount,omitempty"`
    ConceptID     string `json:"concept_id,omitempty"`
    Description   string `json:"description,omitempty"`
}

type correctResponse struct {
    Reversal   entryResponse `json:"reversal"`
    Correction entryResponse `json:"correction"`
}

type nextEntryIDResponse struct {
    Book        string `json:"book"`
    Year        int    `json:"year"`
    NextEntryID int64  `json:"next_entry_id"`
}

type balanceResponse struct {
    Account int64  `json:"account"`
    Book    string `json:"book"`
    Year    int    `json:"year"`
    Month   int    `json:"month"`
    Debit   string `json:"debit"`
    Credit  string `json:"credit"`
    Balance string `json:"balance"`
}

type statementLineResponse struct {
    Book           string `json:"book"`
    Year           int    `json:"year"`
    EntryID        int64  `json:"entry_id"`
    LineID         int    `json:"line_id"`
    Date           string `json:"date"`
    Side           string `json:"side"`
    Amount         string `json:"amount"`
    ConceptID      string `json:"concept_id,omitempty"`
    Description    string `json:"description,omitempty"`
    RunningBalance string `json:"running_balance"`
}

type accountResponse struct {
    Code  int64  `json:"code"`
    Name  string `json:"name"`
    Level int    `json:"level"`
}

type scopeResponse struct {
    Book string `json:"book"`
    Year int    `json:"year"`
}

type recomputeResponse struct {
    Recomputed []scopeResponse `json:"recomputed"`
}

func toEntryResponse(e ledger.JournalEntry) entryResponse {
    out := entryResponse{
        Book:       e.Book,
        Year:       e.Year,
        EntryID:    e.EntryID,
        Date:       e.Date.Format(dateLayout),
        ReversalOf: e.ReversalOf,
        Postings:   make([]postingResponse, 0, len(e.Postings)),
    }
    if len(e.Metadata) > 0 {
        out.Metadata = e.Metadata
    }
    for _, p := range e.Postings {
        pr := postingResponse{LineID: p.LineID, ConceptID: p.ConceptID, Description: p.Description}
        if p.Side == ledger.SideDebit {
            pr.DebitAccount, pr.DebitAmount = int64(p.Account), ledger.FormatAmount(p.Amount)
        } else {
            pr.CreditAccount, pr.CreditAmount = int64(p.Account), ledger.FormatAmount(p.Amount)
        }
        out.Postings = append(out.Postings, pr)
    }
    return out
}

func toBalanceResponses(rows []ledger.MonthlyBalance) []balanceResponse {
    out := make([]balanceResponse, 0, len(rows))
    for _, b := range rows {
        out = append(out, balanceResponse{
            Account: int64(b.Account),
            Book:    b.Book,
            Year:    b.Year,
            Month:   b.Month,
            Debit:   ledger.FormatAmount(b.Debit),
            Credit:  ledger.FormatAmount(b.Credit),
            Balance: ledger.FormatAmount(b.Net()),
        })
    }
    return out
}

func toStatementResponses(lines []ledger.StatementLine) []statementLineResponse {
    out := make([]statementLineResponse, 0, len(lines))
    for _, l := range lines {
        out = append(out, statementLineResponse{
            Book:           l.Book,
            Year:           l.Year,
            EntryID:        l.EntryID,
            LineID:         l.LineID,
            Date:           l.Date.Format(dateLayout),
            Side:           string(l.Side),
            Amount:         ledger.FormatAmount(l.Amount),
            ConceptID:      l.ConceptID,
            Description:    l.Description,
            RunningBalance: ledger.FormatAmount(l.RunningBalance),
        })
    }
    return out
}

func toAccountResponse(a chart.Account) accountResponse {
    return accountResponse{Code: int64(a.Code), Name: a.Name, Level: int(a.Level())}
}

func toScopeResponses(scopes []ledger.Scope) []scopeResponse {
    out := make([]scopeResponse, 0, len(scopes))
    for _, s := range scopes {
        out = append(out, scopeResponse{Book: s.Book, Year: s.Year})
    }
    return out
}

// parseDate reads a calendar date. Empty input yields the zero time.
func parseDate(s string) (time.Time, error) {
    if s == "" {
        return time.Time{}, nil
    }
    return time.Parse(dateLayout, s)
}
