package v1

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
    Error   string         `json:"error"`
    Code    string         `json:"code,omitempty"`
    Details map[string]any `json:"details,omitempty"`
}

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
    toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "bad_request") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg, code string) {
    writeErr(w, http.StatusConflict, msg, code)
}
func unprocessable(w http.ResponseWriter, msg, code string) {
    writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeServiceError maps the ledger error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
    var (
        unbalanced *errs.UnbalancedError
        malformed  *errs.MalformedPostingError
        unknown    *errs.UnknownAccountError
    )
    switch {
    case errors.As(err, &unbalanced):
        toJSON(w, http.StatusUnprocessableEntity, errorResponse{
            Error: err.Error(),
            Code:  "unbalanced_amounts",
            Details: map[string]any{
                "debit":  ledger.FormatAmount(unbalanced.Debit),
                "credit": ledger.FormatAmount(unbalanced.Credit),
                "delta":  ledger.FormatAmount(unbalanced.Delta),
            },
        })
    case errors.As(err, &malformed):
        toJSON(w, http.StatusUnprocessableEntity, errorResponse{
            Error:   err.Error(),
            Code:    "malformed_posting",
            Details: map[string]any{"line": malformed.LineID, "reason": malformed.Reason},
        })
    case errors.As(err, &unknown):
        toJSON(w, http.StatusUnprocessableEntity, errorResponse{
            Error:   err.Error(),
            Code:    "unknown_account",
            Details: map[string]any{"line": unknown.LineID, "account": unknown.Account},
        })
    case errors.Is(err, errs.ErrEmptyBatch):
        unprocessable(w, err.Error(), "empty_batch")
    case errors.Is(err, errs.ErrInvalid):
        unprocessable(w, err.Error(), "validation_error")
    case errors.Is(err, errs.ErrDuplicateEntry):
        conflict(w, err.Error(), "duplicate_entry")
    case errors.Is(err, errs.ErrAlreadyReversed):
        conflict(w, err.Error(), "already_reversed")
    case errors.Is(err, errs.ErrNotFound):
        notFound(w)
    // inconsistent_state may wrap a storage failure; it must win.
    case errors.Is(err, errs.ErrInconsistentState):
        writeErr(w, http.StatusInternalServerError, err.Error(), "inconsistent_state")
    case errors.Is(err, errs.ErrStorage):
        writeErr(w, http.StatusServiceUnavailable, "storage_failure", "storage_failure")
    default:
        writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
    }
}
