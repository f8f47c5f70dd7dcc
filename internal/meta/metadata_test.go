package meta

import (
    "encoding/json"
    "errors"
    "strings"
    "testing"

    "github.com/tinoosan/bookledger/internal/errs"
)

func TestWithDoesNotMutate(t *testing.T) {
    orig := New(map[string]string{"invoice_ref": "F-2025-001"})
    next := orig.With(KeyReversalReason, "typo")
    if _, ok := orig[KeyReversalReason]; ok {
        t.Fatalf("With mutated the receiver")
    }
    if next[KeyReversalReason] != "typo" || next[KeyInvoiceRef] != "F-2025-001" {
        t.Fatalf("unexpected copy: %+v", next)
    }
}

func TestValidationLimits(t *testing.T) {
    tooMany := Metadata{}
    for i := 0; i < MaxPairs+1; i++ {
        tooMany[string(rune('a'+i%26))+strings.Repeat("k", i/26+1)] = "v"
    }
    if err := tooMany.Validate(); !errors.Is(err, errs.ErrInvalid) {
        t.Fatalf("expected invalid for too many pairs, got %v", err)
    }
    if err := (Metadata{"Bad Key": "v"}).Validate(); !errors.Is(err, errs.ErrInvalid) {
        t.Fatalf("expected invalid key, got %v", err)
    }
    if err := (Metadata{"k": strings.Repeat("x", MaxValLen+1)}).Validate(); !errors.Is(err, errs.ErrInvalid) {
        t.Fatalf("expected value too long, got %v", err)
    }
    if err := (Metadata{"invoice_ref": "F-1"}).Validate(); err != nil {
        t.Fatalf("valid metadata rejected: %v", err)
    }
}

func TestStableJSON(t *testing.T) {
    m := Metadata{"b": "2", "a": "1"}
    b, err := json.Marshal(m)
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    if string(b) != `{"a":"1","b":"2"}` {
        t.Fatalf("unexpected json: %s", b)
    }
    var back Metadata
    if err := json.Unmarshal([]byte("null"), &back); err != nil || back == nil || len(back) != 0 {
        t.Fatalf("null should decode to empty metadata: %v %+v", err, back)
    }
}
