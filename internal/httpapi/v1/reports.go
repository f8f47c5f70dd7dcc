package v1

import (
    "net/http"

    "github.com/tinoosan/bookledger/internal/ledger"
)

// getBalances returns monthly balances. book=ALL-BOOKS sums across books and
// a single account in a single year is completed to twelve months.
func (s *Server) getBalances(w http.ResponseWriter, r *http.Request) {
    f, ok := r.Context().Value(ctxKeyBalancesQuery).(ledger.BalanceFilter)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    rows, err := s.reports.GetBalances(r.Context(), f)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    toJSON(w, http.StatusOK, toBalanceResponses(rows))
}

func (s *Server) getStatement(w http.ResponseWriter, r *http.Request) {
    q, ok := r.Context().Value(ctxKeyStatementQuery).(statementQuery)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    lines, err := s.reports.GetStatement(r.Context(), q.Account, q.Filter)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    toJSON(w, http.StatusOK, toStatementResponses(lines))
}
