package journal

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    entriesCommitted = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: "ledger",
        Name:      "entries_committed_total",
        Help:      "Journal entries committed",
    })
    entriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: "ledger",
        Name:      "entries_deleted_total",
        Help:      "Journal entries deleted",
    })
    commitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
        Namespace: "ledger",
        Name:      "commit_rejections_total",
        Help:      "Posting batches refused, by reason",
    }, []string{"reason"})
    compensations = promauto.NewCounterVec(prometheus.CounterOpts{
        Namespace: "ledger",
        Name:      "compensations_total",
        Help:      "Compensating rollbacks attempted after a failed balance update",
    }, []string{"op"})
    inconsistentState = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: "ledger",
        Name:      "inconsistent_state_total",
        Help:      "Partial writes that could not be rolled back",
    })
)
