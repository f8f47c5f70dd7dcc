// Package events announces committed and deleted journal entries to
// downstream consumers. Publishing is best effort: the ledger never fails a
// commit because an event could not be delivered.
package events

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/tinoosan/bookledger/internal/ledger"
)

const (
    EntryCommitted = "entry.committed"
    EntryDeleted   = "entry.deleted"
)

// Event is the JSON payload sent to every sink.
type Event struct {
    ID         uuid.UUID        `json:"id"`
    Type       string           `json:"type"`
    Book       string           `json:"book"`
    Year       int              `json:"year"`
    EntryID    int64            `json:"entry_id"`
    Date       string           `json:"date"`
    ReversalOf *ledger.EntryKey `json:"reversal_of,omitempty"`
    Postings   int              `json:"postings"`
    OccurredAt time.Time        `json:"occurred_at"`
}

// NewEntryEvent describes e with a fresh id.
func NewEntryEvent(typ string, e ledger.JournalEntry) Event {
    return Event{
        ID:         uuid.New(),
        Type:       typ,
        Book:       e.Book,
        Year:       e.Year,
        EntryID:    e.EntryID,
        Date:       e.Date.Format(time.DateOnly),
        ReversalOf: e.ReversalOf,
        Postings:   len(e.Postings),
        OccurredAt: time.Now().UTC(),
    }
}

// Key groups events of one scope on the same partition.
func (e Event) Key() string { return ledger.Scope{Book: e.Book, Year: e.Year}.String() }

func (e Event) payload() ([]byte, error) { return json.Marshal(e) }

// Publisher delivers events to one sink.
type Publisher interface {
    Publish(ctx context.Context, ev Event) error
    Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
    var errList []error
    for _, p := range m {
        if err := p.Publish(ctx, ev); err != nil {
            errList = append(errList, err)
        }
    }
    return errors.Join(errList...)
}

func (m Multi) Close() error {
    var errList []error
    for _, p := range m {
        if err := p.Close(); err != nil {
            errList = append(errList, err)
        }
    }
    return errors.Join(errList...)
}
