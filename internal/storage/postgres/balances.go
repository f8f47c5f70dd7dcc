package postgres

import (
    "context"
    "fmt"
    "strconv"
    "strings"

    "github.com/govalues/money"
    "github.com/jackc/pgx/v5"

    "github.com/tinoosan/bookledger/internal/ledger"
)

// AddMonthly applies deltas in a transaction of its own.
func (s *Store) AddMonthly(ctx context.Context, deltas []ledger.MonthlyBalance) error {
    return s.inTx(ctx, func(tx pgx.Tx) error { return addMonthly(ctx, tx, deltas) })
}

// ReplaceMonthly swaps every balance row of scope for rows.
func (s *Store) ReplaceMonthly(ctx context.Context, scope ledger.Scope, rows []ledger.MonthlyBalance) error {
    return s.inTx(ctx, func(tx pgx.Tx) error { return replaceMonthly(ctx, tx, scope, rows) })
}

// addMonthly increments each row with a single upsert, then drops rows whose
// totals both returned to zero.
func addMonthly(ctx context.Context, q querier, deltas []ledger.MonthlyBalance) error {
    if len(deltas) == 0 { return nil }
    b := &pgx.Batch{}
    for _, d := range deltas {
        b.Queue(`
            insert into monthly_balances (account, book, fiscal_year, month, debit_total, credit_total)
            values ($1,$2,$3,$4,$5::numeric,$6::numeric)
            on conflict (account, book, fiscal_year, month) do update
            set debit_total = monthly_balances.debit_total + excluded.debit_total,
                credit_total = monthly_balances.credit_total + excluded.credit_total
        `, int64(d.Account), d.Book, d.Year, d.Month, ledger.FormatAmount(d.Debit), ledger.FormatAmount(d.Credit))
        b.Queue(`
            delete from monthly_balances
            where account=$1 and book=$2 and fiscal_year=$3 and month=$4 and debit_total = 0 and credit_total = 0
        `, int64(d.Account), d.Book, d.Year, d.Month)
    }
    if err := q.SendBatch(ctx, b).Close(); err != nil {
        return fmt.Errorf("upsert monthly balances: %w", err)
    }
    return nil
}

func replaceMonthly(ctx context.Context, q querier, scope ledger.Scope, rows []ledger.MonthlyBalance) error {
    if _, err := q.Exec(ctx, `delete from monthly_balances where book=$1 and fiscal_year=$2`, scope.Book, scope.Year); err != nil {
        return err
    }
    b := &pgx.Batch{}
    for _, r := range rows {
        if r.IsZero() { continue }
        b.Queue(`
            insert into monthly_balances (account, book, fiscal_year, month, debit_total, credit_total)
            values ($1,$2,$3,$4,$5::numeric,$6::numeric)
        `, int64(r.Account), r.Book, r.Year, r.Month, ledger.FormatAmount(r.Debit), ledger.FormatAmount(r.Credit))
    }
    if b.Len() == 0 { return nil }
    return q.SendBatch(ctx, b).Close()
}

// MonthlyBalances returns rows matching f. In grouped mode every book is
// returned and the caller sums them.
func (s *Store) MonthlyBalances(ctx context.Context, f ledger.BalanceFilter) ([]ledger.MonthlyBalance, error) {
    var where []string
    var args []any
    add := func(cond string, v any) {
        args = append(args, v)
        where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
    }
    if f.Book != "" && !f.Grouped() { add("book = ?", f.Book) }
    if f.Year != 0 { add("fiscal_year = ?", f.Year) }
    if f.Month != 0 { add("month = ?", f.Month) }
    if f.Account != 0 { add("account = ?", int64(f.Account)) }
    sql := `select account, book, fiscal_year, month, debit_total::text, credit_total::text from monthly_balances`
    if len(where) > 0 {
        sql += " where " + strings.Join(where, " and ")
    }

    rows, err := s.pool.Query(ctx, sql, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]ledger.MonthlyBalance, 0)
    for rows.Next() {
        var b ledger.MonthlyBalance
        var account int64
        var debit, credit string
        if err := rows.Scan(&account, &b.Book, &b.Year, &b.Month, &debit, &credit); err != nil { return nil, err }
        b.Account = ledger.AccountCode(account)
        if b.Debit, err = money.ParseAmount(s.currency, debit); err != nil { return nil, err }
        if b.Credit, err = money.ParseAmount(s.currency, credit); err != nil { return nil, err }
        out = append(out, b)
    }
    return out, rows.Err()
}

// StatementPostings returns every posting on account that passes f, joined
// with its entry header.
func (s *Store) StatementPostings(ctx context.Context, account ledger.AccountCode, f ledger.StatementFilter) ([]ledger.PostingRef, error) {
    args := []any{int64(account)}
    where := []string{"(p.debit_account = $1 or p.credit_account = $1)"}
    add := func(cond string, v any) {
        args = append(args, v)
        where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
    }
    if f.Book != "" && f.Book != ledger.AllBooks { add("e.book = ?", f.Book) }
    if f.Year != 0 { add("e.fiscal_year = ?", f.Year) }
    if f.From != nil { add("e.entry_date >= ?", *f.From) }
    if f.To != nil { add("e.entry_date <= ?", *f.To) }

    rows, err := s.pool.Query(ctx, `
        select p.book, p.fiscal_year, p.entry_id, p.line_id, p.debit_account, p.credit_account,
               p.amount::text, p.concept_id, p.description, e.entry_date
        from postings p
        join journal_entries e using (book, fiscal_year, entry_id)
        where `+strings.Join(where, " and ")+`
        order by p.fiscal_year, p.entry_id, p.line_id, p.book
    `, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]ledger.PostingRef, 0)
    for rows.Next() {
        var r ledger.PostingRef
        var debit, credit *int64
        var amount string
        if err := rows.Scan(&r.Book, &r.Year, &r.EntryID, &r.Posting.LineID, &debit, &credit, &amount,
            &r.Posting.ConceptID, &r.Posting.Description, &r.Date); err != nil {
            return nil, err
        }
        if debit != nil {
            r.Posting.Side, r.Posting.Account = ledger.SideDebit, ledger.AccountCode(*debit)
        } else if credit != nil {
            r.Posting.Side, r.Posting.Account = ledger.SideCredit, ledger.AccountCode(*credit)
        }
        if r.Posting.Amount, err = money.ParseAmount(s.currency, amount); err != nil { return nil, err }
        out = append(out, r)
    }
    return out, rows.Err()
}
