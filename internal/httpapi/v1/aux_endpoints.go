package v1

import (
    "context"
    "net/http"
    "time"
)

// ReadyFunc adapts a plain ping function to ReadyChecker.
type ReadyFunc func(ctx context.Context) error

func (f ReadyFunc) Ready(ctx context.Context) error { return f(ctx) }

const readyTimeout = 800 * time.Millisecond

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

// readyz pings every registered dependency with a short timeout.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
    defer cancel()
    for _, rc := range s.ready {
        if err := rc.Ready(ctx); err != nil {
            s.log.Warn("not ready", "req_id", reqID(r), "err", err)
            w.WriteHeader(http.StatusServiceUnavailable)
            return
        }
    }
    w.WriteHeader(http.StatusOK)
}
