package v1

import (
    "context"

    "github.com/tinoosan/bookledger/internal/ledger"
)

// IdempotencyStore maps Idempotency-Key headers to the entry they created.
type IdempotencyStore interface {
    // EntryByIdempotencyKey returns the entry key and request hash saved for key.
    EntryByIdempotencyKey(ctx context.Context, key string) (ledger.EntryKey, string, bool, error)
    // SaveIdempotencyKey stores the mapping unless key is already taken.
    SaveIdempotencyKey(ctx context.Context, key, hash string, entry ledger.EntryKey) error
}

// ReadyChecker is optionally implemented by stores and sinks to indicate readiness.
type ReadyChecker interface {
    Ready(ctx context.Context) error
}

// Recomputer rebuilds monthly balances. *balance.Aggregator satisfies it.
type Recomputer interface {
    Recompute(ctx context.Context, scope ledger.Scope) error
    RecomputeAll(ctx context.Context) ([]ledger.Scope, error)
}
