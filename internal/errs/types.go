package errs

import (
    "errors"
    "fmt"

    "github.com/govalues/money"
)

// UnbalancedError reports the totals of a batch whose debits and credits differ.
type UnbalancedError struct {
    Debit  money.Amount
    Credit money.Amount
    Delta  money.Amount
}

func (e *UnbalancedError) Error() string {
    return fmt.Sprintf("unbalanced amounts: debit %s, credit %s, delta %s", e.Debit, e.Credit, e.Delta)
}

func (e *UnbalancedError) Is(target error) bool { return target == ErrUnbalanced }

// MalformedPostingError points at the 1-based line that failed the single-side rule.
type MalformedPostingError struct {
    LineID int
    Reason string
}

func (e *MalformedPostingError) Error() string {
    return fmt.Sprintf("malformed posting at line %d: %s", e.LineID, e.Reason)
}

func (e *MalformedPostingError) Is(target error) bool { return target == ErrMalformedPosting }

// UnknownAccountError is only produced when strict account checking is enabled.
type UnknownAccountError struct {
    LineID  int
    Account int64
}

func (e *UnknownAccountError) Error() string {
    return fmt.Sprintf("unknown account %d at line %d", e.Account, e.LineID)
}

func (e *UnknownAccountError) Is(target error) bool { return target == ErrUnknownAccount }

// EntryError attaches an entry key to one of ErrDuplicateEntry, ErrNotFound,
// ErrAlreadyReversed or ErrInconsistentState.
type EntryError struct {
    Kind    error
    Book    string
    Year    int
    EntryID int64
    // Err is the underlying cause, if any.
    Err error
}

// Entry builds an EntryError for the given key.
func Entry(kind error, book string, year int, entryID int64) *EntryError {
    return &EntryError{Kind: kind, Book: book, Year: year, EntryID: entryID}
}

func (e *EntryError) Error() string {
    msg := fmt.Sprintf("%s: entry %s/%d/%d", e.Kind, e.Book, e.Year, e.EntryID)
    if e.Err != nil {
        msg += ": " + e.Err.Error()
    }
    return msg
}

func (e *EntryError) Is(target error) bool { return target == e.Kind }

func (e *EntryError) Unwrap() error { return e.Err }

// StorageError wraps a store failure with the operation that produced it.
type StorageError struct {
    Op  string
    Err error
}

// Storage wraps err unless it is nil or already part of the taxonomy.
func Storage(op string, err error) error {
    if err == nil {
        return nil
    }
    if IsTaxonomy(err) {
        return err
    }
    return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string { return "storage failure: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

// IsTaxonomy reports whether err already carries one of the ledger error kinds.
func IsTaxonomy(err error) bool {
    for _, k := range []error{
        ErrEmptyBatch, ErrUnbalanced, ErrMalformedPosting, ErrUnknownAccount,
        ErrDuplicateEntry, ErrNotFound, ErrAlreadyReversed, ErrStorage,
        ErrInconsistentState, ErrInvalid,
    } {
        if errors.Is(err, k) {
            return true
        }
    }
    return false
}
