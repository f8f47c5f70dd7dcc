package cli

import (
    "context"
    "errors"
    "fmt"
    "log/slog"

    "github.com/tinoosan/bookledger/internal/chart"
    "github.com/tinoosan/bookledger/internal/config"
    "github.com/tinoosan/bookledger/internal/events"
    v1 "github.com/tinoosan/bookledger/internal/httpapi/v1"
    "github.com/tinoosan/bookledger/internal/service/account"
    "github.com/tinoosan/bookledger/internal/service/balance"
    "github.com/tinoosan/bookledger/internal/service/journal"
    "github.com/tinoosan/bookledger/internal/service/report"
    "github.com/tinoosan/bookledger/internal/storage/memory"
    pgstore "github.com/tinoosan/bookledger/internal/storage/postgres"
)

// store is what a storage backend offers the services.
type store interface {
    journal.Repo
    journal.Writer
    balance.Store
    balance.Log
    report.Repo
    v1.IdempotencyStore
}

// app is the wired service graph.
type app struct {
    journal   journal.Service
    reports   report.Service
    accounts  account.Service
    agg       *balance.Aggregator
    store     store
    publisher events.Publisher
    ready     []v1.ReadyChecker
    closers   []func() error
}

// build wires storage, event sinks and services from configuration. Postgres
// is used when DATABASE_URL is set, the in-memory store otherwise.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *app, err error) {
    a := &app{}
    defer func() {
        if err != nil {
            _ = a.close()
        }
    }()

    c, err := chart.Load(cfg.ChartFile)
    if err != nil {
        return nil, err
    }
    a.accounts = account.New(c)
    log.Info("chart loaded", "accounts", c.Len(), "file", cfg.ChartFile)

    if cfg.DatabaseURL != "" {
        if cfg.MigrateOnStart {
            if err := pgstore.Migrate(cfg.DatabaseURL, pgstore.Up); err != nil {
                return nil, fmt.Errorf("migrate: %w", err)
            }
            log.Info("migrations applied")
        }
        pg, err := pgstore.Open(ctx, cfg.DatabaseURL, cfg.Currency)
        if err != nil {
            return nil, fmt.Errorf("connect postgres: %w", err)
        }
        a.store = pg
        a.ready = append(a.ready, pg)
        a.closers = append(a.closers, func() error { pg.Close(); return nil })
        log.Info("storage backend: postgres")
    } else {
        a.store = memory.New()
        log.Info("storage backend: memory")
    }

    var sinks events.Multi
    if cfg.RedisURL != "" {
        r, err := events.NewRedis(cfg.RedisURL, cfg.RedisChannel)
        if err != nil {
            return nil, fmt.Errorf("redis: %w", err)
        }
        sinks = append(sinks, r)
        a.ready = append(a.ready, v1.ReadyFunc(r.Ping))
        log.Info("publishing events to redis", "channel", cfg.RedisChannel)
    }
    if len(cfg.KafkaBrokers) > 0 {
        sinks = append(sinks, events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic))
        log.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
    }
    a.publisher = events.Noop{}
    if len(sinks) > 0 {
        a.publisher = sinks
        a.closers = append(a.closers, sinks.Close)
    }

    a.agg = balance.New(a.store, a.store, log, cfg.RecomputeParallelism)
    a.journal = journal.New(a.store, a.store, a.agg, journal.Config{
        Currency:       cfg.Currency,
        StrictAccounts: cfg.StrictAccounts,
        Accounts:       a.accounts,
        Publisher:      a.publisher,
        Logger:         log,
    })
    a.reports = report.New(a.store, cfg.Currency)
    return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
    var errList []error
    for i := len(a.closers) - 1; i >= 0; i-- {
        errList = append(errList, a.closers[i]())
    }
    a.closers = nil
    return errors.Join(errList...)
}
