package postgres

import (
    "github.com/tinoosan/bookledger/internal/service/balance"
    "github.com/tinoosan/bookledger/internal/service/journal"
    "github.com/tinoosan/bookledger/internal/service/report"
)

var (
    _ journal.Repo        = (*Store)(nil)
    _ journal.Writer      = (*Store)(nil)
    _ journal.TxBeginner  = (*Store)(nil)
    _ journal.Tx          = (*Tx)(nil)
    _ balance.Store       = (*Store)(nil)
    _ balance.Log         = (*Store)(nil)
    _ balance.ScopeLocker = (*Store)(nil)
    _ balance.ScopeTx     = (*Tx)(nil)
    _ report.Repo         = (*Store)(nil)
)
