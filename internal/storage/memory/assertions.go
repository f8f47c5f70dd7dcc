package memory

import (
    "github.com/tinoosan/bookledger/internal/service/balance"
    "github.com/tinoosan/bookledger/internal/service/journal"
    "github.com/tinoosan/bookledger/internal/service/report"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
    _ journal.Repo   = (*Store)(nil)
    _ journal.Writer = (*Store)(nil)
    _ balance.Store  = (*Store)(nil)
    _ balance.Log    = (*Store)(nil)
    _ report.Repo    = (*Store)(nil)
)
