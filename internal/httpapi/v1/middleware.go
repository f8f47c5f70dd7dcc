package v1

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "time"

    chi "github.com/go-chi/chi/v5"
    "github.com/govalues/money"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/meta"
    "github.com/tinoosan/bookledger/internal/service/journal"
)

type ctxKey string

const (
    ctxKeyPostEntry      ctxKey = "validatedPostEntry"
    ctxKeyEntryKey       ctxKey = "validatedEntryKey"
    ctxKeyScope          ctxKey = "validatedScope"
    ctxKeyReverse        ctxKey = "validatedReverse"
    ctxKeyCorrect        ctxKey = "validatedCorrect"
    ctxKeyBalancesQuery  ctxKey = "validatedBalancesQuery"
    ctxKeyStatementQuery ctxKey = "validatedStatementQuery"
)

// maxBodyBytes caps request bodies; a full batch of postings fits well below it.
const maxBodyBytes = 1 << 20

// postEntryInput is what validatePostEntry hands to postEntry.
type postEntryInput struct {
    Draft    ledger.JournalEntryDraft
    Postings []ledger.PostingDraft
    // BodyHash fingerprints the raw request for Idempotency-Key replays.
    BodyHash string
}

type correctInput struct {
    Opts     journal.ReverseOptions
    Postings []ledger.PostingDraft
}

type statementQuery struct {
    Account ledger.AccountCode
    Filter  ledger.StatementFilter
}

// validatePostEntry decodes POST /v1/entries, runs the engine's validation and
// stores the validated input in the request context for the handler to use.
func (s *Server) validatePostEntry() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            if !requireJSON(w, r) {
                return
            }
            raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
            if err != nil {
                badRequest(w, "read body: "+err.Error())
                return
            }
            var req postEntryRequest
            if err := decodeStrict(raw, &req); err != nil {
                badRequest(w, "invalid JSON: "+err.Error())
                return
            }
            date, err := parseDate(req.Date)
            if err != nil {
                badRequest(w, "invalid date, want YYYY-MM-DD")
                return
            }
            postings, err := s.toPostingDrafts(req.Postings)
            if err != nil {
                writeServiceError(w, err)
                return
            }
            draft := ledger.JournalEntryDraft{
                Book:     req.Book,
                Year:     req.Year,
                EntryID:  req.EntryID,
                Date:     date,
                Metadata: meta.New(req.Metadata),
            }
            if _, err := s.svc.Validate(r.Context(), draft, postings); err != nil {
                writeServiceError(w, err)
                return
            }
            in := postEntryInput{Draft: draft, Postings: postings, BodyHash: hashBytes(raw)}
            ctx := context.WithValue(r.Context(), ctxKeyPostEntry, in)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateEntryKey parses {book}/{year}/{id} path parameters.
func (s *Server) validateEntryKey() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            year, err := strconv.Atoi(chi.URLParam(r, "year"))
            if err != nil {
                badRequest(w, "invalid year")
                return
            }
            id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
            if err != nil || id < 1 {
                badRequest(w, "invalid entry id")
                return
            }
            key := ledger.EntryKey{Book: chi.URLParam(r, "book"), Year: year, EntryID: id}
            ctx := context.WithValue(r.Context(), ctxKeyEntryKey, key)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateScope parses {book}/{year} path parameters.
func (s *Server) validateScope() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            year, err := strconv.Atoi(chi.URLParam(r, "year"))
            if err != nil {
                badRequest(w, "invalid year")
                return
            }
            scope := ledger.Scope{Book: chi.URLParam(r, "book"), Year: year}
            ctx := context.WithValue(r.Context(), ctxKeyScope, scope)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateReverse parses the optional reverse body.
func (s *Server) validateReverse() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            var req reverseRequest
            if r.ContentLength != 0 {
                if !requireJSON(w, r) {
                    return
                }
                dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
                dec.DisallowUnknownFields()
                if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
                    badRequest(w, "invalid JSON: "+err.Error())
                    return
                }
            }
            opts, err := toReverseOptions(req)
            if err != nil {
                badRequest(w, err.Error())
                return
            }
            ctx := context.WithValue(r.Context(), ctxKeyReverse, opts)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateCorrect parses the correction body: placement options plus the
// replacement postings.
func (s *Server) validateCorrect() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            if !requireJSON(w, r) {
                return
            }
            var req correctRequest
            dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
            dec.DisallowUnknownFields()
            if err := dec.Decode(&req); err != nil {
                badRequest(w, "invalid JSON: "+err.Error())
                return
            }
            opts, err := toReverseOptions(req.reverseRequest)
            if err != nil {
                badRequest(w, err.Error())
                return
            }
            postings, err := s.toPostingDrafts(req.Postings)
            if err != nil {
                writeServiceError(w, err)
                return
            }
            ctx := context.WithValue(r.Context(), ctxKeyCorrect, correctInput{Opts: opts, Postings: postings})
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateBalancesQuery parses GET /v1/balances query params. Range checks
// are left to the report service.
func (s *Server) validateBalancesQuery() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            q := r.URL.Query()
            f := ledger.BalanceFilter{Book: q.Get("book")}
            var err error
            if f.Year, err = queryInt(q, "year"); err != nil {
                badRequest(w, err.Error())
                return
            }
            if f.Month, err = queryInt(q, "month"); err != nil {
                badRequest(w, err.Error())
                return
            }
            account, err := queryInt(q, "account")
            if err != nil {
                badRequest(w, err.Error())
                return
            }
            f.Account = ledger.AccountCode(account)
            ctx := context.WithValue(r.Context(), ctxKeyBalancesQuery, f)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateStatementQuery parses GET /v1/accounts/{code}/statement.
func (s *Server) validateStatementQuery() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            code, err := strconv.ParseInt(chi.URLParam(r, "code"), 10, 64)
            if err != nil || code < 1 {
                badRequest(w, "invalid account code")
                return
            }
            q := r.URL.Query()
            sq := statementQuery{Account: ledger.AccountCode(code), Filter: ledger.StatementFilter{Book: q.Get("book")}}
            if sq.Filter.Year, err = queryInt(q, "year"); err != nil {
                badRequest(w, err.Error())
                return
            }
            if sq.Filter.From, err = queryDate(q, "from"); err != nil {
                badRequest(w, err.Error())
                return
            }
            if sq.Filter.To, err = queryDate(q, "to"); err != nil {
                badRequest(w, err.Error())
                return
            }
            ctx := context.WithValue(r.Context(), ctxKeyStatementQuery, sq)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// toPostingDrafts parses amounts in the server currency. A value that is not
// a decimal number is reported against its line like any other bad posting.
func (s *Server) toPostingDrafts(reqs []postingRequest) ([]ledger.PostingDraft, error) {
    out := make([]ledger.PostingDraft, 0, len(reqs))
    for i, p := range reqs {
        debit, err := s.parseAmount(p.DebitAmount)
        if err != nil {
            return nil, &errs.MalformedPostingError{LineID: i + 1, Reason: "debit_amount: " + err.Error()}
        }
        credit, err := s.parseAmount(p.CreditAmount)
        if err != nil {
            return nil, &errs.MalformedPostingError{LineID: i + 1, Reason: "credit_amount: " + err.Error()}
        }
        out = append(out, ledger.PostingDraft{
            DebitAccount:  ledger.AccountCode(p.DebitAccount),
            CreditAccount: ledger.AccountCode(p.CreditAccount),
            DebitAmount:   debit,
            CreditAmount:  credit,
            ConceptID:     p.ConceptID,
            Description:   p.Description,
        })
    }
    return out, nil
}

// parseAmount returns the zero amount for an absent value.
func (s *Server) parseAmount(n json.Number) (money.Amount, error) {
    if n == "" {
        return ledger.Zero(s.currency), nil
    }
    return ledger.ParseAmount(s.currency, n.String())
}

func toReverseOptions(req reverseRequest) (journal.ReverseOptions, error) {
    date, err := parseDate(req.Date)
    if err != nil {
        return journal.ReverseOptions{}, errors.New("invalid date, want YYYY-MM-DD")
    }
    return journal.ReverseOptions{Date: date, Year: req.Year, Reason: req.Reason}, nil
}

func decodeStrict(raw []byte, v any) error {
    dec := json.NewDecoder(bytes.NewReader(raw))
    dec.DisallowUnknownFields()
    return dec.Decode(v)
}

// queryInt returns 0 for an absent parameter.
func queryInt(q url.Values, name string) (int, error) {
    raw := q.Get(name)
    if raw == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return 0, errors.New("invalid " + name)
    }
    return n, nil
}

func queryDate(q url.Values, name string) (*time.Time, error) {
    raw := q.Get(name)
    if raw == "" {
        return nil, nil
    }
    t, err := time.Parse(dateLayout, raw)
    if err != nil {
        return nil, errors.New("invalid " + name + ", want YYYY-MM-DD")
    }
    return &t, nil
}
