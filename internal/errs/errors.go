package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
    ErrNotFound  = errors.New("not_found")
    ErrConflict  = errors.New("conflict")
    ErrInvalid   = errors.New("invalid")
    // ErrUnprocessable is used for semantic validation failures (HTTP 422)
    ErrUnprocessable = errors.New("unprocessable")

    // Posting engine validation failures. None of them persist anything.
    ErrEmptyBatch       = errors.New("empty_batch")
    ErrUnbalanced       = errors.New("unbalanced_amounts")
    ErrMalformedPosting = errors.New("malformed_posting")
    ErrUnknownAccount   = errors.New("unknown_account")

    // ErrDuplicateEntry is returned by stores when (book, year, entry id) is taken.
    ErrDuplicateEntry = errors.New("duplicate_entry")
    // ErrAlreadyReversed indicates the entry already has a reversing entry.
    ErrAlreadyReversed = errors.New("already_reversed")

    // ErrStorage wraps failures reported by the ledger store.
    ErrStorage = errors.New("storage_failure")
    // ErrInconsistentState means a rollback failed after a partial write.
    // It must reach an operator; retrying does not fix it.
    ErrInconsistentState = errors.New("inconsistent_state")
)
