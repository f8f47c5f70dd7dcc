package v1

import (
    "crypto/sha256"
    "encoding/hex"
    "net/http"

    chimw "github.com/go-chi/chi/v5/middleware"
)

func hashBytes(b []byte) string {
    h := sha256.Sum256(b)
    return hex.EncodeToString(h[:])
}

func reqID(r *http.Request) string { return chimw.GetReqID(r.Context()) }
