package journal

import (
    "context"
    "errors"
    "time"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/meta"
)

// ReverseOptions places the reversing entry. Zero values fall back to the
// original entry's date and year.
type ReverseOptions struct {
    Date   time.Time
    Year   int
    Reason string
}

// Reverse commits a new entry in the same book with every posting of key moved
// to the opposite side. An entry can be reversed once.
func (s *service) Reverse(ctx context.Context, key ledger.EntryKey, opts ReverseOptions) (ledger.JournalEntry, error) {
    draft, postings, err := s.reversalOf(ctx, key, opts)
    if err != nil {
        return ledger.JournalEntry{}, err
    }
    rev, err := s.Commit(ctx, draft, postings)
    if err != nil {
        if errors.Is(err, errs.ErrAlreadyReversed) {
            return ledger.JournalEntry{}, errs.Entry(errs.ErrAlreadyReversed, key.Book, key.Year, key.EntryID)
        }
        return ledger.JournalEntry{}, err
    }
    s.log.Info("entry reversed", "book", key.Book, "year", key.Year, "entry_id", key.EntryID, "reversal_id", rev.EntryID)
    return rev, nil
}

func (s *service) reversalOf(ctx context.Context, key ledger.EntryKey, opts ReverseOptions) (ledger.JournalEntryDraft, []ledger.PostingDraft, error) {
    orig, err := s.Get(ctx, key)
    if err != nil {
        return ledger.JournalEntryDraft{}, nil, err
    }
    if _, done, err := s.repo.ReversalOf(ctx, key); err != nil {
        return ledger.JournalEntryDraft{}, nil, errs.Storage("reversal lookup", err)
    } else if done {
        return ledger.JournalEntryDraft{}, nil, errs.Entry(errs.ErrAlreadyReversed, key.Book, key.Year, key.EntryID)
    }

    draft := ledger.JournalEntryDraft{
        Book:       orig.Book,
        Year:       orig.Year,
        Date:       orig.Date,
        ReversalOf: &key,
        Metadata:   meta.New(nil),
    }
    if opts.Year != 0 {
        draft.Year = opts.Year
    }
    if !opts.Date.IsZero() {
        draft.Date = opts.Date
    }
    if opts.Reason != "" {
        draft.Metadata = draft.Metadata.With(meta.KeyReversalReason, opts.Reason)
    }
    if ref, ok := orig.Metadata[meta.KeyInvoiceRef]; ok {
        draft.Metadata = draft.Metadata.With(meta.KeyInvoiceRef, ref)
    }

    postings := make([]ledger.PostingDraft, 0, len(orig.Postings))
    for _, p := range orig.Postings {
        postings = append(postings, p.Flip().Draft())
    }
    return draft, postings, nil
}

// Correct reverses key and commits postings as its replacement, dated and
// placed like the reversal. If the replacement cannot be committed the
// reversal is removed again.
func (s *service) Correct(ctx context.Context, key ledger.EntryKey, opts ReverseOptions, postings []ledger.PostingDraft) (ledger.JournalEntry, ledger.JournalEntry, error) {
    revDraft, _, err := s.reversalOf(ctx, key, opts)
    if err != nil {
        return ledger.JournalEntry{}, ledger.JournalEntry{}, err
    }
    corrDraft := ledger.JournalEntryDraft{
        Book:     revDraft.Book,
        Year:     revDraft.Year,
        Date:     revDraft.Date,
        Metadata: meta.New(nil).With(meta.KeyCorrects, key.String()),
    }
    if ref, ok := revDraft.Metadata[meta.KeyInvoiceRef]; ok {
        corrDraft.Metadata = corrDraft.Metadata.With(meta.KeyInvoiceRef, ref)
    }
    if _, err := s.Validate(ctx, corrDraft, postings); err != nil {
        return ledger.JournalEntry{}, ledger.JournalEntry{}, err
    }

    rev, err := s.Reverse(ctx, key, opts)
    if err != nil {
        return ledger.JournalEntry{}, ledger.JournalEntry{}, err
    }
    corr, err := s.Commit(ctx, corrDraft, postings)
    if err != nil {
        if derr := s.Delete(context.WithoutCancel(ctx), rev.Key()); derr != nil {
            inconsistentState.Inc()
            s.log.Error("correction failed and reversal could not be removed", "book", key.Book, "year", key.Year, "entry_id", key.EntryID, "reversal_id", rev.EntryID, "err", derr, "cause", err)
            ie := errs.Entry(errs.ErrInconsistentState, rev.Book, rev.Year, rev.EntryID)
            ie.Err = errors.Join(err, derr)
            return ledger.JournalEntry{}, ledger.JournalEntry{}, ie
        }
        return ledger.JournalEntry{}, ledger.JournalEntry{}, err
    }
    s.log.Info("entry corrected", "book", key.Book, "year", key.Year, "entry_id", key.EntryID, "reversal_id", rev.EntryID, "correction_id", corr.EntryID)
    return rev, corr, nil
}
