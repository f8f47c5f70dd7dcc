package events

import (
    "context"
    "encoding/json"
    "errors"
    "os"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/money"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/tinoosan/bookledger/internal/ledger"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev Event) error {
    return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) Close() error { return m.Called().Error(0) }

func sampleEntry() ledger.JournalEntry {
    amt := money.MustNewAmount("EUR", 12100, 2)
    return ledger.JournalEntry{
        Book:    "B1",
        Year:    2025,
        EntryID: 7,
        Date:    time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
        Postings: []ledger.Posting{
            ledger.DebitPosting(4300001, amt),
            ledger.CreditPosting(7000000, amt),
        },
    }
}

func TestNewEntryEvent(t *testing.T) {
    ev := NewEntryEvent(EntryCommitted, sampleEntry())
    assert.NotEqual(t, uuid.Nil, ev.ID)
    assert.Equal(t, "2025-03-14", ev.Date)
    assert.Equal(t, 2, ev.Postings)
    assert.Equal(t, "B1/2025", ev.Key())

    b, err := ev.payload()
    require.NoError(t, err)
    var got map[string]any
    require.NoError(t, json.Unmarshal(b, &got))
    assert.Equal(t, "entry.committed", got["type"])
    assert.EqualValues(t, 7, got["entry_id"])
    assert.NotContains(t, got, "reversal_of")
}

func TestMultiPublishesToAllAndJoinsErrors(t *testing.T) {
    ctx := context.Background()
    ev := NewEntryEvent(EntryDeleted, sampleEntry())
    boom := errors.New("sink down")

    a, b := &mockPublisher{}, &mockPublisher{}
    a.On("Publish", ctx, ev).Return(boom)
    b.On("Publish", ctx, ev).Return(nil)
    a.On("Close").Return(nil)
    b.On("Close").Return(nil)

    m := Multi{a, b}
    err := m.Publish(ctx, ev)
    require.ErrorIs(t, err, boom)
    require.NoError(t, m.Close())
    a.AssertExpectations(t)
    b.AssertExpectations(t)
}

func TestNoop(t *testing.T) {
    var p Publisher = Noop{}
    require.NoError(t, p.Publish(context.Background(), Event{}))
    require.NoError(t, p.Close())
}

func TestRedisPublish(t *testing.T) {
    url := os.Getenv("TEST_REDIS_URL")
    if url == "" {
        t.Skip("TEST_REDIS_URL not set")
    }
    r, err := NewRedis(url, "ledger_events_test")
    require.NoError(t, err)
    defer r.Close()
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    require.NoError(t, r.Ping(ctx))
    require.NoError(t, r.Publish(ctx, NewEntryEvent(EntryCommitted, sampleEntry())))
}

func TestNewRedisRejectsBadURL(t *testing.T) {
    _, err := NewRedis("not a url", "c")
    require.Error(t, err)
}
