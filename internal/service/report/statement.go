package report

import (
    "context"
    "fmt"
    "sort"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/slug"
)

// GetStatement lists the account's postings ordered by (year, entry id,
// line id, book) with a running balance: debits add, credits subtract.
// It reads the posting log only, never the monthly balances.
func (s *service) GetStatement(ctx context.Context, account ledger.AccountCode, f ledger.StatementFilter) ([]ledger.StatementLine, error) {
    if account <= 0 {
        return nil, fmt.Errorf("%w: account %d", errs.ErrInvalid, account)
    }
    if f.Book != "" && f.Book != ledger.AllBooks && !slug.IsBookID(f.Book) {
        return nil, fmt.Errorf("%w: book %q", errs.ErrInvalid, f.Book)
    }
    if f.From != nil && f.To != nil && f.To.Before(*f.From) {
        return nil, fmt.Errorf("%w: date range ends before it starts", errs.ErrInvalid)
    }
    refs, err := s.repo.StatementPostings(ctx, account, f)
    if err != nil {
        return nil, errs.Storage("statement postings", err)
    }
    sort.Slice(refs, func(i, j int) bool {
        a, b := refs[i], refs[j]
        if a.Year != b.Year {
            return a.Year < b.Year
        }
        if a.EntryID != b.EntryID {
            return a.EntryID < b.EntryID
        }
        if a.Posting.LineID != b.Posting.LineID {
            return a.Posting.LineID < b.Posting.LineID
        }
        return a.Book < b.Book
    })
    return s.fold(refs)
}

// fold computes running balances over refs in their current order.
func (s *service) fold(refs []ledger.PostingRef) ([]ledger.StatementLine, error) {
    running := ledger.Zero(s.currency)
    out := make([]ledger.StatementLine, 0, len(refs))
    for _, r := range refs {
        var err error
        if running, err = running.Add(r.Posting.Signed()); err != nil {
            return nil, fmt.Errorf("entry %s/%d/%d line %d: %w", r.Book, r.Year, r.EntryID, r.Posting.LineID, err)
        }
        p := r.Posting
        out = append(out, ledger.StatementLine{
            Book:           r.Book,
            Year:           r.Year,
            EntryID:        r.EntryID,
            LineID:         p.LineID,
            Date:           r.Date,
            Side:           p.Side,
            Account:        p.Account,
            Amount:         p.Amount,
            ConceptID:      p.ConceptID,
            Description:    p.Description,
            RunningBalance: running,
        })
    }
    return out, nil
}
