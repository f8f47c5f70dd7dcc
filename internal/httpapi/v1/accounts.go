package v1

import (
    "net/http"
    "strconv"

    chi "github.com/go-chi/chi/v5"

    "github.com/tinoosan/bookledger/internal/chart"
    "github.com/tinoosan/bookledger/internal/ledger"
)

// listAccounts lists the chart, optionally narrowed by level and code prefix.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    var f chart.Filter
    if raw := q.Get("level"); raw != "" {
        lvl, ok := chart.ParseLevel(raw)
        if !ok {
            badRequest(w, "invalid level")
            return
        }
        f.Level = lvl
    }
    if p := q.Get("prefix"); p != "" {
        if _, err := strconv.ParseUint(p, 10, 64); err != nil {
            badRequest(w, "invalid prefix")
            return
        }
        f.Prefix = p
    }
    accounts, err := s.accountSvc.List(r.Context(), f)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    out := make([]accountResponse, 0, len(accounts))
    for _, a := range accounts {
        out = append(out, toAccountResponse(a))
    }
    toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
    code, err := strconv.ParseInt(chi.URLParam(r, "code"), 10, 64)
    if err != nil || code < 1 {
        badRequest(w, "invalid account code")
        return
    }
    a, err := s.accountSvc.Get(r.Context(), ledger.AccountCode(code))
    if err != nil {
        writeServiceError(w, err)
        return
    }
    toJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) chartLevels(w http.ResponseWriter, r *http.Request) {
    toJSON(w, http.StatusOK, s.accountSvc.Levels(r.Context()))
}
