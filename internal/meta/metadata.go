// Package meta holds free-form entry attributes supplied by collaborators,
// such as the invoice reference a posting batch was generated from.
package meta

import (
    "bytes"
    "encoding/json"
    "fmt"
    "regexp"
    "sort"

    "github.com/tinoosan/bookledger/internal/errs"
)

// Metadata is a small string map with validation and stable JSON encoding.
type Metadata map[string]string

const (
    MaxPairs     = 20
    MaxKeyLen    = 64
    MaxValLen    = 256
    MaxTotalJSON = 4096
)

// Keys set by the engine itself.
const (
    KeyReversalReason = "reversal_reason"
    KeyCorrects       = "corrects"
    KeyInvoiceRef     = "invoice_ref"
)

var reKey = regexp.MustCompile(`^[a-z0-9_.-]+$`)

// New copies m. A nil map yields an empty Metadata.
func New(m map[string]string) Metadata {
    out := make(Metadata, len(m))
    for k, v := range m {
        out[k] = v
    }
    return out
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata { return New(m) }

// With returns a copy with k set to v.
func (m Metadata) With(k, v string) Metadata {
    out := m.Clone()
    out[k] = v
    return out
}

// Validate enforces key syntax and size limits. Errors wrap errs.ErrInvalid.
func (m Metadata) Validate() error {
    if len(m) > MaxPairs {
        return fmt.Errorf("%w: metadata has %d pairs, max %d", errs.ErrInvalid, len(m), MaxPairs)
    }
    for k, v := range m {
        if len(k) == 0 || len(k) > MaxKeyLen || !reKey.MatchString(k) {
            return fmt.Errorf("%w: metadata key %q", errs.ErrInvalid, k)
        }
        if len(v) > MaxValLen {
            return fmt.Errorf("%w: metadata value for %q too long", errs.ErrInvalid, k)
        }
    }
    b, err := m.MarshalStableJSON()
    if err != nil {
        return err
    }
    if len(b) > MaxTotalJSON {
        return fmt.Errorf("%w: metadata exceeds %d bytes", errs.ErrInvalid, MaxTotalJSON)
    }
    return nil
}

// MarshalStableJSON returns a deterministic JSON object with sorted keys.
// Used for storage and for idempotency hashing.
func (m Metadata) MarshalStableJSON() ([]byte, error) {
    keys := make([]string, 0, len(m))
    for k := range m {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    var buf bytes.Buffer
    buf.WriteByte('{')
    for i, k := range keys {
        if i > 0 {
            buf.WriteByte(',')
        }
        kb, err := json.Marshal(k)
        if err != nil {
            return nil, err
        }
        vb, err := json.Marshal(m[k])
        if err != nil {
            return nil, err
        }
        buf.Write(kb)
        buf.WriteByte(':')
        buf.Write(vb)
    }
    buf.WriteByte('}')
    return buf.Bytes(), nil
}

func (m Metadata) MarshalJSON() ([]byte, error) { return m.MarshalStableJSON() }

func (m *Metadata) UnmarshalJSON(b []byte) error {
    if len(b) == 0 || bytes.Equal(b, []byte("null")) {
        *m = Metadata{}
        return nil
    }
    var tmp map[string]string
    if err := json.Unmarshal(b, &tmp); err != nil {
        return err
    }
    *m = New(tmp)
    return nil
}
