package journal

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/govalues/money"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/slug"
)

const (
    maxPostings       = 1000
    maxDescriptionLen = 255
    maxConceptIDLen   = 64
)

// Validate checks a draft and its postings without touching the store and
// returns the entry Commit would insert. Checks run in order: header, empty
// batch, single-side rule per line, balance, then (strict mode only) accounts.
func (s *service) Validate(ctx context.Context, draft ledger.JournalEntryDraft, drafts []ledger.PostingDraft) (ledger.JournalEntry, error) {
    if err := s.validHeader(draft); err != nil {
        return ledger.JournalEntry{}, err
    }
    if len(drafts) == 0 {
        return ledger.JournalEntry{}, errs.ErrEmptyBatch
    }
    if len(drafts) > maxPostings {
        return ledger.JournalEntry{}, fmt.Errorf("%w: at most %d postings per entry", errs.ErrInvalid, maxPostings)
    }

    postings := make([]ledger.Posting, 0, len(drafts))
    for i, d := range drafts {
        p, err := s.toPosting(i+1, d)
        if err != nil {
            return ledger.JournalEntry{}, err
        }
        postings = append(postings, p)
    }

    debit, credit, err := totals(s.currency, postings)
    if err != nil {
        return ledger.JournalEntry{}, err
    }
    if !ledger.WithinEpsilon(debit, credit) {
        delta, _ := debit.Sub(credit)
        return ledger.JournalEntry{}, &errs.UnbalancedError{Debit: debit, Credit: credit, Delta: delta}
    }

    if s.strict && s.accounts != nil {
        if err := s.checkAccounts(ctx, postings); err != nil {
            return ledger.JournalEntry{}, err
        }
    }

    var rev *ledger.EntryKey
    if draft.ReversalOf != nil {
        k := *draft.ReversalOf
        rev = &k
    }
    return ledger.JournalEntry{
        Book:       draft.Book,
        Year:       draft.Year,
        EntryID:    draft.EntryID,
        Date:       dateOnly(draft.Date),
        ReversalOf: rev,
        Metadata:   draft.Metadata.Clone(),
        Postings:   postings,
    }, nil
}

func (s *service) validHeader(d ledger.JournalEntryDraft) error {
    if err := validScope(ledger.Scope{Book: d.Book, Year: d.Year}); err != nil {
        return err
    }
    if d.EntryID < 0 {
        return fmt.Errorf("%w: entry id must not be negative", errs.ErrInvalid)
    }
    if d.Date.IsZero() {
        return fmt.Errorf("%w: date is required", errs.ErrInvalid)
    }
    if d.ReversalOf != nil {
        if err := validKey(*d.ReversalOf); err != nil {
            return fmt.Errorf("reversal_of: %w", err)
        }
    }
    return d.Metadata.Validate()
}

// toPosting applies the single-side rule to one two-column draft line.
func (s *service) toPosting(line int, d ledger.PostingDraft) (ledger.Posting, error) {
    malformed := func(reason string) error { return &errs.MalformedPostingError{LineID: line, Reason: reason} }

    hasDebit := d.DebitAccount != 0 || !d.DebitAmount.IsZero()
    hasCredit := d.CreditAccount != 0 || !d.CreditAmount.IsZero()
    var p ledger.Posting
    switch {
    case hasDebit && hasCredit:
        return p, malformed("both debit and credit are set")
    case !hasDebit && !hasCredit:
        return p, malformed("neither debit nor credit is set")
    case hasDebit:
        p = ledger.DebitPosting(d.DebitAccount, d.DebitAmount)
    default:
        p = ledger.CreditPosting(d.CreditAccount, d.CreditAmount)
    }
    p.LineID = line
    p.ConceptID = d.ConceptID
    p.Description = d.Description

    if p.Account <= 0 {
        return p, malformed("account is missing")
    }
    if p.Amount.Sign() <= 0 {
        return p, malformed("amount must be positive")
    }
    if p.Amount.Curr().Code() != s.currency {
        return p, malformed(fmt.Sprintf("currency %s, ledger uses %s", p.Amount.Curr().Code(), s.currency))
    }
    if !ledger.FitsMinorUnits(p.Amount) {
        return p, malformed("amount has more decimals than the currency allows")
    }
    if len(p.Description) > maxDescriptionLen {
        return p, malformed("description too long")
    }
    if len(p.ConceptID) > maxConceptIDLen {
        return p, malformed("concept id too long")
    }
    return p, nil
}

func totals(curr string, postings []ledger.Posting) (debit, credit money.Amount, err error) {
    debit, credit = ledger.Zero(curr), ledger.Zero(curr)
    for _, p := range postings {
        switch p.Side {
        case ledger.SideDebit:
            debit, err = debit.Add(p.Amount)
        case ledger.SideCredit:
            credit, err = credit.Add(p.Amount)
        }
        if err != nil {
            return debit, credit, &errs.MalformedPostingError{LineID: p.LineID, Reason: err.Error()}
        }
    }
    return debit, credit, nil
}

func (s *service) checkAccounts(ctx context.Context, postings []ledger.Posting) error {
    seen := make(map[ledger.AccountCode]bool, len(postings))
    for _, p := range postings {
        known, checked := seen[p.Account]
        if !checked {
            var err error
            if known, err = s.accounts.AccountExists(ctx, p.Account); err != nil {
                return errs.Storage("account lookup", err)
            }
            seen[p.Account] = known
        }
        if !known {
            return &errs.UnknownAccountError{LineID: p.LineID, Account: int64(p.Account)}
        }
    }
    return nil
}

func validScope(sc ledger.Scope) error {
    if !slug.IsBookID(sc.Book) {
        return fmt.Errorf("%w: book %q", errs.ErrInvalid, sc.Book)
    }
    if sc.Year < 1 || sc.Year > 9999 {
        return fmt.Errorf("%w: year %d", errs.ErrInvalid, sc.Year)
    }
    return nil
}

func validKey(k ledger.EntryKey) error {
    if err := validScope(k.Scope()); err != nil {
        return err
    }
    if k.EntryID < 1 {
        return fmt.Errorf("%w: entry id %d", errs.ErrInvalid, k.EntryID)
    }
    return nil
}

func dateOnly(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// rejectionReason is the metrics label for a refused commit.
func rejectionReason(err error) string {
    switch {
    case errors.Is(err, errs.ErrEmptyBatch):
        return "empty_batch"
    case errors.Is(err, errs.ErrUnbalanced):
        return "unbalanced"
    case errors.Is(err, errs.ErrMalformedPosting):
        return "malformed"
    case errors.Is(err, errs.ErrUnknownAccount):
        return "unknown_account"
    case errors.Is(err, errs.ErrDuplicateEntry):
        return "duplicate"
    case errors.Is(err, errs.ErrAlreadyReversed):
        return "already_reversed"
    case errors.Is(err, errs.ErrInvalid):
        return "invalid"
    default:
        return "other"
    }
}
