package cli

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/cobra"

    v1 "github.com/tinoosan/bookledger/internal/httpapi/v1"
)

var serveCmd = &cobra.Command{
    Use:   "serve",
    Short: "Run the HTTP API",
    Long: `Run the ledger HTTP API until SIGINT or SIGTERM.

Storage is Postgres when DATABASE_URL is set and in-memory otherwise.
Entry events go to Redis and/or Kafka when REDIS_URL or KAFKA_BROKERS is set.`,
    Args: cobra.NoArgs,
    RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
    ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    a, err := build(ctx, cfg, logger)
    if err != nil {
        return err
    }
    defer func() {
        if err := a.close(); err != nil {
            logger.Error("shutdown cleanup", "err", err)
        }
    }()

    api, err := v1.New(v1.Deps{
        Journal:     a.journal,
        Reports:     a.reports,
        Accounts:    a.accounts,
        Maintenance: a.agg,
        Idempotency: a.store,
        Currency:    cfg.Currency,
        Ready:       a.ready,
        RateLimit:   cfg.RateLimit,
    }, logger)
    if err != nil {
        return err
    }

    srv := &http.Server{
        Addr:              cfg.HTTPAddr,
        Handler:           api.Handler(),
        ReadTimeout:       5 * time.Second,
        ReadHeaderTimeout: 5 * time.Second,
        WriteTimeout:      30 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    errCh := make(chan error, 1)
    go func() {
        logger.Info("ledger service listening", "addr", srv.Addr)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
    }()

    select {
    case <-ctx.Done():
        logger.Info("shutting down")
        ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
        defer cancel()
        if err := srv.Shutdown(ctxShutdown); err != nil {
            logger.Error("server shutdown error", "err", err)
            return err
        }
        return nil
    case err := <-errCh:
        logger.Error("server error", "err", err)
        return err
    }
}
