package v1

import (
    "net/http"
    "strings"

    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/service/journal"
)

const idempotencyHeader = "Idempotency-Key"

// postEntry commits a validated batch. With an Idempotency-Key header a
// repeated identical request returns the entry created the first time.
func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
    in, ok := r.Context().Value(ctxKeyPostEntry).(postEntryInput)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
    if idemKey != "" && s.idemStore != nil {
        key, hash, found, err := s.idemStore.EntryByIdempotencyKey(r.Context(), idemKey)
        if err != nil {
            s.log.Error("idempotency lookup failed", "req_id", reqID(r), "err", err)
            writeErr(w, http.StatusServiceUnavailable, "storage_failure", "storage_failure")
            return
        }
        if found {
            if hash != in.BodyHash {
                conflict(w, "idempotency key reused with a different body", "idempotency_mismatch")
                return
            }
            e, err := s.svc.Get(r.Context(), key)
            if err != nil {
                writeServiceError(w, err)
                return
            }
            w.Header().Set("Idempotent-Replay", "true")
            toJSON(w, http.StatusOK, toEntryResponse(e))
            return
        }
    }

    e, err := s.svc.Commit(r.Context(), in.Draft, in.Postings)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    if idemKey != "" && s.idemStore != nil {
        if err := s.idemStore.SaveIdempotencyKey(r.Context(), idemKey, in.BodyHash, e.Key()); err != nil {
            s.log.Warn("idempotency key not saved", "req_id", reqID(r), "key", idemKey, "err", err)
        }
    }
    toJSON(w, http.StatusCreated, toEntryResponse(e))
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
    key, ok := r.Context().Value(ctxKeyEntryKey).(ledger.EntryKey)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    e, err := s.svc.Get(r.Context(), key)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    toJSON(w, http.StatusOK, toEntryResponse(e))
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
    key, ok := r.Context().Value(ctxKeyEntryKey).(ledger.EntryKey)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    if err := s.svc.Delete(r.Context(), key); err != nil {
        writeServiceError(w, err)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reverseEntry(w http.ResponseWriter, r *http.Request) {
    key, ok := r.Context().Value(ctxKeyEntryKey).(ledger.EntryKey)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    opts, _ := r.Context().Value(ctxKeyReverse).(journal.ReverseOptions)
    rev, err := s.svc.Reverse(r.Context(), key, opts)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    toJSON(w, http.StatusCreated, toEntryResponse(rev))
}

func (s *Server) correctEntry(w http.ResponseWriter, r *http.Request) {
    key, ok := r.Context().Value(ctxKeyEntryKey).(ledger.EntryKey)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    in, ok := r.Context().Value(ctxKeyCorrect).(correctInput)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    rev, corr, err := s.svc.Correct(r.Context(), key, in.Opts, in.Postings)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    toJSON(w, http.StatusCreated, correctResponse{Reversal: toEntryResponse(rev), Correction: toEntryResponse(corr)})
}

func (s *Server) nextEntryID(w http.ResponseWriter, r *http.Request) {
    scope, ok := r.Context().Value(ctxKeyScope).(ledger.Scope)
    if !ok {
        badRequest(w, "invalid request")
        return
    }
    next, err := s.svc.NextEntryID(r.Context(), scope)
    if err != nil {
        writeServiceError(w, err)
        return
    }
    toJSON(w, http.StatusOK, nextEntryIDResponse{Book: scope.Book, Year: scope.Year, NextEntryID: next})
}
