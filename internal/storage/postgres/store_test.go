package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/govalues/money"

	"github.com/tinoosan/bookledger/internal/errs"
	"github.com/tinoosan/bookledger/internal/ledger"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

// openClean migrates the schema, empties every table and opens a store.
func openClean(t *testing.T) *Store {
	t.Helper()
	dsn := getTestDSN(t)
	if err := Migrate(dsn, Up); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn, "EUR")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `truncate table entry_idempotency, entry_sequences, monthly_balances, postings, journal_entries`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func eur(cents int64) money.Amount { return money.MustNewAmount("EUR", cents, 2) }

func invoiceEntry(id int64) ledger.JournalEntry {
	p := []ledger.Posting{
		ledger.DebitPosting(4300001, eur(12100)),
		ledger.CreditPosting(7000000, eur(10000)),
		ledger.CreditPosting(4770000, eur(2100)),
	}
	for i := range p {
		p[i].LineID = i + 1
	}
	p[0].Description = "invoice 2025/001"
	return ledger.JournalEntry{
		Book:     "1",
		Year:     2025,
		EntryID:  id,
		Date:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Postings: p,
	}
}

func TestStore_EntriesRoundTrip(t *testing.T) {
	s := openClean(t)
	ctx := context.Background()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	first, err := s.InsertEntry(ctx, invoiceEntry(0))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.EntryID != 1 {
		t.Fatalf("allocated id = %d, want 1", first.EntryID)
	}
	if _, err := s.InsertEntry(ctx, invoiceEntry(10)); err != nil {
		t.Fatalf("insert explicit: %v", err)
	}
	next, err := s.NextEntryID(ctx, first.Scope())
	if err != nil || next != 11 {
		t.Fatalf("next id = %d, %v; want 11", next, err)
	}
	if _, err := s.InsertEntry(ctx, invoiceEntry(10)); !errors.Is(err, errs.ErrDuplicateEntry) {
		t.Fatalf("duplicate insert err = %v", err)
	}

	got, err := s.Entry(ctx, first.Key())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Postings) != 3 || got.Postings[0].Side != ledger.SideDebit || got.Postings[2].Account != 4770000 {
		t.Fatalf("unexpected postings: %+v", got.Postings)
	}
	if ledger.FormatAmount(got.Postings[0].Amount) != "121.00" || got.Postings[0].Description != "invoice 2025/001" {
		t.Fatalf("unexpected first posting: %+v", got.Postings[0])
	}

	all, err := s.EntriesInScope(ctx, first.Scope())
	if err != nil || len(all) != 2 || all[1].EntryID != 10 {
		t.Fatalf("entries in scope: %v %+v", err, all)
	}

	removed, err := s.DeleteEntry(ctx, first.Key())
	if err != nil || len(removed.Postings) != 3 {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Entry(ctx, first.Key()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get after delete err = %v", err)
	}
	if _, err := s.DeleteEntry(ctx, first.Key()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestStore_ReversalUniqueness(t *testing.T) {
	s := openClean(t)
	ctx := context.Background()
	orig, err := s.InsertEntry(ctx, invoiceEntry(0))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	rev := invoiceEntry(0)
	key := orig.Key()
	rev.ReversalOf = &key
	for i := range rev.Postings {
		rev.Postings[i] = rev.Postings[i].Flip()
	}
	saved, err := s.InsertEntry(ctx, rev)
	if err != nil {
		t.Fatalf("insert reversal: %v", err)
	}
	got, ok, err := s.ReversalOf(ctx, key)
	if err != nil || !ok || got != saved.Key() {
		t.Fatalf("reversal of = %v %v %v", got, ok, err)
	}
	if _, err := s.InsertEntry(ctx, rev); !errors.Is(err, errs.ErrAlreadyReversed) {
		t.Fatalf("second reversal err = %v", err)
	}
}

func TestStore_MonthlyBalances(t *testing.T) {
	s := openClean(t)
	ctx := context.Background()
	delta := []ledger.MonthlyBalance{
		{Account: 4300001, Book: "1", Year: 2025, Month: 3, Debit: eur(12100), Credit: eur(0)},
		{Account: 7000000, Book: "1", Year: 2025, Month: 3, Debit: eur(0), Credit: eur(10000)},
	}
	for i := 0; i < 2; i++ {
		if err := s.AddMonthly(ctx, delta); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	rows, err := s.MonthlyBalances(ctx, ledger.BalanceFilter{Book: "1", Year: 2025, Account: 4300001})
	if err != nil || len(rows) != 1 {
		t.Fatalf("balances: %v %+v", err, rows)
	}
	if ledger.FormatAmount(rows[0].Debit) != "242.00" {
		t.Fatalf("debit total = %s", ledger.FormatAmount(rows[0].Debit))
	}

	revert := make([]ledger.MonthlyBalance, len(delta))
	for i, d := range delta {
		d.Debit, d.Credit = d.Debit.Neg(), d.Credit.Neg()
		revert[i] = d
	}
	for i := 0; i < 2; i++ {
		if err := s.AddMonthly(ctx, revert); err != nil {
			t.Fatalf("revert: %v", err)
		}
	}
	rows, err = s.MonthlyBalances(ctx, ledger.BalanceFilter{})
	if err != nil || len(rows) != 0 {
		t.Fatalf("zero rows should be pruned: %v %+v", err, rows)
	}
}

func TestStore_StatementAndRecomputeTx(t *testing.T) {
	s := openClean(t)
	ctx := context.Background()
	e, err := s.InsertEntry(ctx, invoiceEntry(0))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	from := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	refs, err := s.StatementPostings(ctx, 4300001, ledger.StatementFilter{Year: 2025, From: &from, To: &from})
	if err != nil || len(refs) != 1 || refs[0].EntryID != e.EntryID {
		t.Fatalf("statement postings: %v %+v", err, refs)
	}

	tx, err := s.LockScope(ctx, e.Scope())
	if err != nil {
		t.Fatalf("lock scope: %v", err)
	}
	rows := []ledger.MonthlyBalance{{Account: 4300001, Book: "1", Year: 2025, Month: 3, Debit: eur(12100), Credit: eur(0)}}
	if err := tx.ReplaceMonthly(ctx, e.Scope(), rows); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	scopes, err := s.Scopes(ctx)
	if err != nil || len(scopes) != 1 || scopes[0] != e.Scope() {
		t.Fatalf("scopes: %v %+v", err, scopes)
	}
}

func TestStore_Idempotency(t *testing.T) {
	s := openClean(t)
	ctx := context.Background()
	key := ledger.EntryKey{Book: "1", Year: 2025, EntryID: 1}
	if err := s.SaveIdempotencyKey(ctx, "k1", "hash-a", key); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveIdempotencyKey(ctx, "k1", "hash-b", ledger.EntryKey{Book: "1", Year: 2025, EntryID: 2}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, hash, ok, err := s.EntryByIdempotencyKey(ctx, "k1")
	if err != nil || !ok || got != key || hash != "hash-a" {
		t.Fatalf("lookup = %v %q %v %v", got, hash, ok, err)
	}
}
