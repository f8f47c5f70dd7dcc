// Package v1 wires the HTTP surface of the ledger service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
    "log/slog"
    "net/http"

    chi "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"

    "github.com/tinoosan/bookledger/internal/service/account"
    "github.com/tinoosan/bookledger/internal/service/journal"
    "github.com/tinoosan/bookledger/internal/service/report"
)

// Deps are the services and stores the API is built on.
type Deps struct {
    Journal     journal.Service
    Reports     report.Service
    Accounts    account.Service
    Maintenance Recomputer
    Idempotency IdempotencyStore
    // Currency amounts in requests are parsed in. Defaults to EUR.
    Currency string
    // Ready lists the dependencies /readyz pings.
    Ready []ReadyChecker
    // RateLimit limits write routes per client IP, in limiter's "<n>-<S|M|H>"
    // format. Empty disables it.
    RateLimit string
}

// Server wires handlers and middleware using Chi.
type Server struct {
    svc         journal.Service
    reports     report.Service
    accountSvc  account.Service
    maintenance Recomputer
    idemStore   IdempotencyStore
    ready       []ReadyChecker
    currency    string
    limit       func(http.Handler) http.Handler
    log         *slog.Logger
    rt          *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(d Deps, logger *slog.Logger) (*Server, error) {
    if logger == nil {
        logger = slog.Default()
    }
    limit, err := rateLimiter(d.RateLimit)
    if err != nil {
        return nil, err
    }
    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    r.Use(chimw.RealIP)
    r.Use(requestLogger(logger))
    r.Use(recoverer(logger))
    r.Use(metricsMiddleware)

    s := &Server{
        svc:         d.Journal,
        reports:     d.Reports,
        accountSvc:  d.Accounts,
        maintenance: d.Maintenance,
        idemStore:   d.Idempotency,
        ready:       d.Ready,
        currency:    d.Currency,
        limit:       limit,
        log:         logger,
        rt:          r,
    }
    if s.currency == "" {
        s.currency = "EUR"
    }
    s.routes()
    return s, nil
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
    write := s.rt.With(s.limit)

    // Entries
    write.With(s.validatePostEntry()).Post("/v1/entries", s.postEntry)
    s.rt.With(s.validateEntryKey()).Get("/v1/entries/{book}/{year}/{id}", s.getEntry)
    write.With(s.validateEntryKey()).Delete("/v1/entries/{book}/{year}/{id}", s.deleteEntry)
    write.With(s.validateEntryKey(), s.validateReverse()).Post("/v1/entries/{book}/{year}/{id}/reverse", s.reverseEntry)
    write.With(s.validateEntryKey(), s.validateCorrect()).Post("/v1/entries/{book}/{year}/{id}/correct", s.correctEntry)
    s.rt.With(s.validateScope()).Get("/v1/books/{book}/years/{year}/next-entry-id", s.nextEntryID)

    // Reports
    s.rt.With(s.validateBalancesQuery()).Get("/v1/balances", s.getBalances)
    s.rt.With(s.validateStatementQuery()).Get("/v1/accounts/{code}/statement", s.getStatement)

    // Chart of accounts
    s.rt.Get("/v1/accounts", s.listAccounts)
    s.rt.Get("/v1/accounts/{code}", s.getAccount)
    s.rt.Get("/v1/chart/levels", s.chartLevels)

    // Maintenance
    write.Post("/v1/maintenance/recompute", s.recompute)

    // Health and metrics (unversioned)
    s.rt.Get("/healthz", s.healthz)
    s.rt.Get("/readyz", s.readyz)
    s.rt.Handle("/metrics", metricsHandler())
}
