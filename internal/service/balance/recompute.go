package balance

import (
    "context"
    "fmt"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "golang.org/x/sync/errgroup"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
)

var recomputeDuration = promauto.NewHistogramVec(
    prometheus.HistogramOpts{
        Namespace: "ledger",
        Name:      "recompute_duration_seconds",
        Help:      "Duration of monthly balance recomputation per scope",
        Buckets:   prometheus.DefBuckets,
    },
    []string{"result"},
)

// Recompute rebuilds every monthly balance of scope from the posting log.
// Commits and deletes on the scope wait until it finishes.
func (a *Aggregator) Recompute(ctx context.Context, scope ledger.Scope) error {
    start := time.Now()
    unlock := a.locks.Lock(scope)
    defer unlock()

    rows, err := a.recompute(ctx, scope)
    result := "ok"
    if err != nil {
        result = "error"
    }
    recomputeDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
    if err != nil {
        a.logger.Error("recompute failed", "book", scope.Book, "year", scope.Year, "err", err)
        return err
    }
    a.logger.Info("recompute complete", "book", scope.Book, "year", scope.Year, "rows", rows, "duration", time.Since(start).String())
    return nil
}

func (a *Aggregator) recompute(ctx context.Context, scope ledger.Scope) (int, error) {
    if locker, ok := a.log.(ScopeLocker); ok {
        tx, err := locker.LockScope(ctx, scope)
        if err != nil {
            return 0, errs.Storage("lock scope", err)
        }
        committed := false
        defer func() {
            if !committed {
                _ = tx.Rollback(context.WithoutCancel(ctx))
            }
        }()
        n, err := rebuild(ctx, tx, scope)
        if err != nil {
            return 0, err
        }
        if err := tx.Commit(ctx); err != nil {
            return 0, errs.Storage("commit recompute", err)
        }
        committed = true
        return n, nil
    }
    return rebuild(ctx, a.log, scope)
}

type scopeReadWriter interface {
    EntriesInScope(ctx context.Context, scope ledger.Scope) ([]ledger.JournalEntry, error)
    ReplaceMonthly(ctx context.Context, scope ledger.Scope, rows []ledger.MonthlyBalance) error
}

func rebuild(ctx context.Context, rw scopeReadWriter, scope ledger.Scope) (int, error) {
    entries, err := rw.EntriesInScope(ctx, scope)
    if err != nil {
        return 0, errs.Storage("load scope entries", err)
    }
    rows, err := Fold(entries)
    if err != nil {
        return 0, fmt.Errorf("scope %s: %w", scope, err)
    }
    if err := rw.ReplaceMonthly(ctx, scope, rows); err != nil {
        return 0, errs.Storage("replace balances", err)
    }
    return len(rows), nil
}

// RecomputeAll rebuilds every scope known to the store, a few at a time.
// The first failure cancels the remaining work.
func (a *Aggregator) RecomputeAll(ctx context.Context) ([]ledger.Scope, error) {
    scopes, err := a.log.Scopes(ctx)
    if err != nil {
        return nil, errs.Storage("list scopes", err)
    }
    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(a.parallelism)
    for _, sc := range scopes {
        sc := sc
        g.Go(func() error { return a.Recompute(gctx, sc) })
    }
    if err := g.Wait(); err != nil {
        return nil, err
    }
    return scopes, nil
}
