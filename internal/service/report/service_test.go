package report_test

import (
    "context"
    "io"
    "log/slog"
    "testing"
    "time"

    "github.com/govalues/money"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
    "github.com/tinoosan/bookledger/internal/service/balance"
    "github.com/tinoosan/bookledger/internal/service/journal"
    "github.com/tinoosan/bookledger/internal/service/report"
    "github.com/tinoosan/bookledger/internal/storage/memory"
)

func eur(cents int64) money.Amount { return money.MustNewAmount("EUR", cents, 2) }

type fixture struct {
    ctx     context.Context
    engine  journal.Service
    reports report.Service
}

func newFixture() fixture {
    store := memory.New()
    log := slog.New(slog.NewTextHandler(io.Discard, nil))
    agg := balance.New(store, store, log, 1)
    return fixture{
        ctx:     context.Background(),
        engine:  journal.New(store, store, agg, journal.Config{Logger: log}),
        reports: report.New(store, "EUR"),
    }
}

func (f fixture) commit(t *testing.T, book string, id int64, date time.Time, drafts ...ledger.PostingDraft) ledger.JournalEntry {
    t.Helper()
    e, err := f.engine.Commit(f.ctx, ledger.JournalEntryDraft{Book: book, Year: date.Year(), EntryID: id, Date: date}, drafts)
    require.NoError(t, err)
    return e
}

func day(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }

func TestInvoiceStatementEndsAt121(t *testing.T) {
    f := newFixture()
    f.commit(t, "1", 1, day(3, 15),
        ledger.Debit(4300001, eur(12100)),
        ledger.Credit(7000000, eur(10000)),
        ledger.Credit(4770000, eur(2100)),
    )
    lines, err := f.reports.GetStatement(f.ctx, 4300001, ledger.StatementFilter{Year: 2025})
    require.NoError(t, err)
    require.Len(t, lines, 1)
    assert.Equal(t, "121.00", ledger.FormatAmount(lines[0].RunningBalance))
    assert.Equal(t, ledger.SideDebit, lines[0].Side)
    assert.Equal(t, 1, lines[0].LineID)
}

func TestUnbalancedBatchLeavesBalancesUnchanged(t *testing.T) {
    f := newFixture()
    f.commit(t, "1", 0, day(3, 1), ledger.Debit(6000000, eur(5000)), ledger.Credit(4000001, eur(5000)))
    filter := ledger.BalanceFilter{Book: "1", Year: 2025, Month: 3, Account: 6000000}
    before, err := f.reports.GetBalances(f.ctx, filter)
    require.NoError(t, err)

    _, err = f.engine.Commit(f.ctx, ledger.JournalEntryDraft{Book: "1", Year: 2025, Date: day(3, 2)}, []ledger.PostingDraft{
        ledger.Debit(6000000, eur(10000)),
        ledger.Credit(4000001, eur(9000)),
    })
    var ue *errs.UnbalancedError
    require.ErrorAs(t, err, &ue)
    assert.Equal(t, "10.00", ledger.FormatAmount(ue.Delta))

    after, err := f.reports.GetBalances(f.ctx, filter)
    require.NoError(t, err)
    assert.Equal(t, before, after)
}

func TestBalancesOrdering(t *testing.T) {
    f := newFixture()
    f.commit(t, "1", 0, day(1, 10), ledger.Debit(6000000, eur(100)), ledger.Credit(4000001, eur(100)))
    f.commit(t, "1", 0, day(4, 10), ledger.Debit(6000000, eur(200)), ledger.Credit(4000001, eur(200)))
    f.commit(t, "2", 0, day(4, 11), ledger.Debit(6000000, eur(300)), ledger.Credit(4000001, eur(300)))

    rows, err := f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Year: 2025})
    require.NoError(t, err)
    type key struct {
        month   int
        account ledger.AccountCode
        book    string
    }
    got := make([]key, 0, len(rows))
    for _, r := range rows {
        got = append(got, key{r.Month, r.Account, r.Book})
    }
    assert.Equal(t, []key{
        {4, 4000001, "1"}, {4, 4000001, "2"}, {4, 6000000, "1"}, {4, 6000000, "2"},
        {1, 4000001, "1"}, {1, 6000000, "1"},
    }, got)
}

func TestBalancesAcrossBooks(t *testing.T) {
    f := newFixture()
    f.commit(t, "1", 0, day(4, 10), ledger.Debit(6000000, eur(200)), ledger.Credit(4000001, eur(200)))
    f.commit(t, "2", 0, day(4, 11), ledger.Debit(6000000, eur(300)), ledger.Credit(4000001, eur(300)))

    rows, err := f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Book: ledger.AllBooks, Year: 2025, Month: 4, Account: 6000000})
    require.NoError(t, err)
    require.Len(t, rows, 1)
    assert.Equal(t, ledger.AllBooks, rows[0].Book)
    assert.Equal(t, "5.00", ledger.FormatAmount(rows[0].Debit))
}

func TestMonthCompletion(t *testing.T) {
    f := newFixture()
    for _, m := range []time.Month{2, 5, 11} {
        f.commit(t, "1", 0, day(m, 3), ledger.Debit(6000000, eur(100)), ledger.Credit(4000001, eur(100)))
    }

    rows, err := f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Book: "1", Year: 2025, Account: 6000000})
    require.NoError(t, err)
    require.Len(t, rows, 12)
    zero := 0
    for i, r := range rows {
        assert.Equal(t, 12-i, r.Month)
        assert.Equal(t, "1", r.Book)
        if r.IsZero() {
            zero++
        }
    }
    assert.Equal(t, 9, zero)

    grouped, err := f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Book: ledger.AllBooks, Year: 2025, Account: 6000000})
    require.NoError(t, err)
    assert.Len(t, grouped, 12)

    empty, err := f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Year: 2025, Account: 6290000})
    require.NoError(t, err)
    require.Len(t, empty, 12)
    assert.Equal(t, ledger.AllBooks, empty[0].Book)
}

func TestStatementRunningBalanceAndCrossCheck(t *testing.T) {
    f := newFixture()
    f.commit(t, "1", 0, day(1, 5), ledger.Debit(5720001, eur(100000)), ledger.Credit(1000000, eur(100000)))
    f.commit(t, "1", 0, day(2, 5), ledger.Debit(6000000, eur(25000)), ledger.Credit(5720001, eur(25000)))
    f.commit(t, "2", 0, day(2, 6), ledger.Debit(5720001, eur(5000)), ledger.Credit(7000000, eur(5000)))
    f.commit(t, "1", 0, day(3, 1), ledger.Debit(5720001, eur(1000)), ledger.Credit(5720001, eur(400)), ledger.Credit(7000000, eur(600)))

    lines, err := f.reports.GetStatement(f.ctx, 5720001, ledger.StatementFilter{Year: 2025})
    require.NoError(t, err)
    running := make([]string, 0, len(lines))
    for _, l := range lines {
        running = append(running, ledger.FormatAmount(l.RunningBalance))
    }
    // entry 1 of both books sorts before entry 2 of book 1
    assert.Equal(t, []string{"1000.00", "1050.00", "800.00", "810.00", "806.00"}, running)

    rows, err := f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Year: 2025, Account: 5720001})
    require.NoError(t, err)
    total := ledger.Zero("EUR")
    for _, r := range rows {
        total, err = total.Add(r.Net())
        require.NoError(t, err)
    }
    assert.True(t, ledger.Equal(total, lines[len(lines)-1].RunningBalance))
}

func TestStatementDateRange(t *testing.T) {
    f := newFixture()
    f.commit(t, "1", 0, day(1, 31), ledger.Debit(4300001, eur(100)), ledger.Credit(7000000, eur(100)))
    f.commit(t, "1", 0, day(2, 1), ledger.Debit(4300001, eur(200)), ledger.Credit(7000000, eur(200)))
    f.commit(t, "1", 0, day(2, 28), ledger.Debit(4300001, eur(300)), ledger.Credit(7000000, eur(300)))

    from, to := day(2, 1), day(2, 28)
    lines, err := f.reports.GetStatement(f.ctx, 4300001, ledger.StatementFilter{Book: "1", From: &from, To: &to})
    require.NoError(t, err)
    require.Len(t, lines, 2)
    assert.Equal(t, "5.00", ledger.FormatAmount(lines[1].RunningBalance))

    _, err = f.reports.GetStatement(f.ctx, 4300001, ledger.StatementFilter{From: &to, To: &from})
    assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestFilterValidation(t *testing.T) {
    f := newFixture()
    _, err := f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Month: 13})
    assert.ErrorIs(t, err, errs.ErrInvalid)
    _, err = f.reports.GetBalances(f.ctx, ledger.BalanceFilter{Book: "bad book"})
    assert.ErrorIs(t, err, errs.ErrInvalid)
    _, err = f.reports.GetStatement(f.ctx, 0, ledger.StatementFilter{})
    assert.ErrorIs(t, err, errs.ErrInvalid)
}
