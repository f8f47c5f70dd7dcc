package cli

import (
    "bytes"
    "context"
    "io"
    "log/slog"
    "os"
    "testing"
    "time"

    "github.com/govalues/money"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/tinoosan/bookledger/internal/config"
    "github.com/tinoosan/bookledger/internal/events"
    "github.com/tinoosan/bookledger/internal/ledger"
)

func TestBuildInMemory(t *testing.T) {
    log := slog.New(slog.NewTextHandler(io.Discard, nil))
    a, err := build(context.Background(), &config.Config{Currency: "EUR", RecomputeParallelism: 2}, log)
    require.NoError(t, err)
    t.Cleanup(func() { _ = a.close() })

    assert.IsType(t, events.Noop{}, a.publisher)
    assert.Empty(t, a.ready)

    eur := func(c int64) money.Amount { return money.MustNewAmount("EUR", c, 2) }
    e, err := a.journal.Commit(context.Background(),
        ledger.JournalEntryDraft{Book: "1", Year: 2025, Date: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
        []ledger.PostingDraft{ledger.Debit(4300001, eur(12100)), ledger.Credit(7000000, eur(12100))},
    )
    require.NoError(t, err)
    assert.Equal(t, int64(1), e.EntryID)

    rows, err := a.reports.GetBalances(context.Background(), ledger.BalanceFilter{Book: "1", Year: 2025, Month: 3})
    require.NoError(t, err)
    assert.Len(t, rows, 2)
}

func TestBuildRejectsMissingChart(t *testing.T) {
    log := slog.New(slog.NewTextHandler(io.Discard, nil))
    _, err := build(context.Background(), &config.Config{Currency: "EUR", ChartFile: "does-not-exist.yaml"}, log)
    assert.Error(t, err)
}

func TestCommandsNeedDatabase(t *testing.T) {
    chdir(t, t.TempDir())
    t.Setenv("DATABASE_URL", "")
    for _, args := range [][]string{{"migrate", "up"}, {"recompute", "--all"}} {
        var out bytes.Buffer
        rootCmd.SetOut(&out)
        rootCmd.SetErr(&out)
        rootCmd.SetArgs(args)
        err := rootCmd.Execute()
        require.Error(t, err, args)
        assert.Contains(t, err.Error(), "DATABASE_URL")
    }

    rootCmd.SetArgs([]string{"migrate", "sideways"})
    assert.Error(t, rootCmd.Execute())
}

// chdir switches the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
    t.Helper()
    prev, err := os.Getwd()
    if err != nil {
        t.Fatal(err)
    }
    if err := os.Chdir(dir); err != nil {
        t.Fatal(err)
    }
    t.Cleanup(func() { _ = os.Chdir(prev) })
}
