package v1

import (
    "encoding/json"
    "net/http"

    "github.com/tinoosan/bookledger/internal/ledger"
)

// recompute rebuilds monthly balances from the journal for one scope, or for
// every scope with {"all": true}.
func (s *Server) recompute(w http.ResponseWriter, r *http.Request) {
    if s.maintenance == nil {
        writeErr(w, http.StatusNotImplemented, "recompute not available", "not_implemented")
        return
    }
    if !requireJSON(w, r) {
        return
    }
    var req recomputeRequest
    dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
    dec.DisallowUnknownFields()
    if err := dec.Decode(&req); err != nil {
        badRequest(w, "invalid JSON: "+err.Error())
        return
    }
    if req.All {
        scopes, err := s.maintenance.RecomputeAll(r.Context())
        if err != nil {
            writeServiceError(w, err)
            return
        }
        toJSON(w, http.StatusOK, recomputeResponse{Recomputed: toScopeResponses(scopes)})
        return
    }
    if req.Book == "" || req.Year == 0 {
        badRequest(w, "book and year are required unless all is set")
        return
    }
    scope := ledger.Scope{Book: req.Book, Year: req.Year}
    if err := s.maintenance.Recompute(r.Context(), scope); err != nil {
        writeServiceError(w, err)
        return
    }
    s.log.Info("balances recomputed", "req_id", reqID(r), "book", scope.Book, "year", scope.Year)
    toJSON(w, http.StatusOK, recomputeResponse{Recomputed: toScopeResponses([]ledger.Scope{scope})})
}
