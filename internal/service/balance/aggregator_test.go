package balance_test

import (
    "context"
    "io"
    "log/slog"
    "math/rand"
    "testing"
    "time"

    "github.com/govalues/money"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/service/balance"
    "github.com/tinoosan/bookledger/internal/storage/memory"
)

func eur(cents int64) money.Amount { return money.MustNewAmount("EUR", cents, 2) }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func entry(book string, year int, id int64, date time.Time, postings ...ledger.Posting) ledger.JournalEntry {
    for i := range postings {
        postings[i].LineID = i + 1
    }
    return ledger.JournalEntry{Book: book, Year: year, EntryID: id, Date: date, Postings: postings}
}

func TestDeltasGroupsByAccountAndSide(t *testing.T) {
    date := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
    postings := []ledger.Posting{
        ledger.DebitPosting(5720001, eur(1000)),
        ledger.CreditPosting(5720001, eur(400)),
        ledger.CreditPosting(4300001, eur(600)),
    }
    // fiscal year 2025 with a December 2024 date: year comes from the entry
    rows, err := balance.Deltas("B", 2025, date, postings, balance.Apply)
    require.NoError(t, err)
    require.Len(t, rows, 2)
    assert.Equal(t, ledger.AccountCode(4300001), rows[0].Account)
    assert.Equal(t, 2025, rows[1].Year)
    assert.Equal(t, 12, rows[1].Month)
    assert.True(t, ledger.Equal(eur(1000), rows[1].Debit))
    assert.True(t, ledger.Equal(eur(400), rows[1].Credit))

    rev, err := balance.Deltas("B", 2025, date, postings, balance.Revert)
    require.NoError(t, err)
    assert.True(t, ledger.Equal(eur(-1000), rev[1].Debit))
}

func TestFoldDropsZeroRows(t *testing.T) {
    d := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
    a := entry("B", 2025, 1, d, ledger.DebitPosting(600, eur(100)), ledger.CreditPosting(700, eur(100)))
    b := entry("B", 2025, 2, d, ledger.DebitPosting(600, eur(-100)), ledger.CreditPosting(700, eur(-100)))
    rows, err := balance.Fold([]ledger.JournalEntry{a, b})
    require.NoError(t, err)
    assert.Empty(t, rows)
}

// randomEntries builds balanced entries spread over books and months.
func randomEntries(r *rand.Rand, n int) []ledger.JournalEntry {
    accounts := []ledger.AccountCode{4300001, 7000000, 4770000, 5720001, 6000000}
    books := []string{"A", "B"}
    out := make([]ledger.JournalEntry, 0, n)
    for i := 0; i < n; i++ {
        amt := eur(int64(r.Intn(100000) + 1))
        debit := accounts[r.Intn(len(accounts))]
        credit := accounts[r.Intn(len(accounts))]
        date := time.Date(2025, time.Month(r.Intn(12)+1), r.Intn(28)+1, 0, 0, 0, 0, time.UTC)
        out = append(out, entry(books[r.Intn(len(books))], 2025, int64(i+1), date,
            ledger.DebitPosting(debit, amt), ledger.CreditPosting(credit, amt)))
    }
    return out
}

func TestRecomputeMatchesIncremental(t *testing.T) {
    ctx := context.Background()
    store := memory.New()
    agg := balance.New(store, store, quiet(), 2)
    r := rand.New(rand.NewSource(42))

    live := map[ledger.EntryKey]ledger.JournalEntry{}
    for _, e := range randomEntries(r, 200) {
        saved, err := store.InsertEntry(ctx, e)
        require.NoError(t, err)
        require.NoError(t, agg.ApplyEntry(ctx, saved, balance.Apply))
        live[saved.Key()] = saved
    }
    // delete roughly a third
    for k, e := range live {
        if r.Intn(3) != 0 {
            continue
        }
        _, err := store.DeleteEntry(ctx, k)
        require.NoError(t, err)
        require.NoError(t, agg.ApplyEntry(ctx, e, balance.Revert))
    }

    incremental, err := store.MonthlyBalances(ctx, ledger.BalanceFilter{})
    require.NoError(t, err)

    _, err = agg.RecomputeAll(ctx)
    require.NoError(t, err)
    rebuilt, err := store.MonthlyBalances(ctx, ledger.BalanceFilter{})
    require.NoError(t, err)

    assert.Equal(t, index(incremental), index(rebuilt))
}

func index(rows []ledger.MonthlyBalance) map[ledger.BalanceKey][2]string {
    out := make(map[ledger.BalanceKey][2]string, len(rows))
    for _, r := range rows {
        out[r.Key()] = [2]string{ledger.FormatAmount(r.Debit), ledger.FormatAmount(r.Credit)}
    }
    return out
}

func TestRecomputeRepairsDrift(t *testing.T) {
    ctx := context.Background()
    store := memory.New()
    agg := balance.New(store, store, quiet(), 1)
    d := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
    e, err := store.InsertEntry(ctx, entry("A", 2025, 0, d,
        ledger.DebitPosting(4300001, eur(12100)), ledger.CreditPosting(7000000, eur(12100))))
    require.NoError(t, err)

    // out-of-band row the log does not explain
    require.NoError(t, store.AddMonthly(ctx, []ledger.MonthlyBalance{
        {Account: 6000000, Book: "A", Year: 2025, Month: 1, Debit: eur(5), Credit: eur(0)},
    }))
    require.NoError(t, agg.Recompute(ctx, e.Scope()))

    rows, err := store.MonthlyBalances(ctx, ledger.BalanceFilter{Book: "A", Year: 2025})
    require.NoError(t, err)
    require.Len(t, rows, 2)
    for _, r := range rows {
        assert.NotEqual(t, ledger.AccountCode(6000000), r.Account)
        assert.Equal(t, 5, r.Month)
    }
}

func TestRecomputeWaitsForSharedHolders(t *testing.T) {
    ctx := context.Background()
    store := memory.New()
    agg := balance.New(store, store, quiet(), 1)
    scope := ledger.Scope{Book: "A", Year: 2025}

    unlock := agg.LockShared(scope)
    done := make(chan struct{})
    go func() {
        _ = agg.Recompute(ctx, scope)
        close(done)
    }()
    select {
    case <-done:
        t.Fatal("recompute ran while a commit held the scope")
    case <-time.After(50 * time.Millisecond):
    }
    unlock()
    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatal("recompute did not finish after release")
    }
}
