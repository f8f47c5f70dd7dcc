package v1

import (
    "fmt"
    "net/http"

    "github.com/ulule/limiter/v3"
    "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
    limitmem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// rateLimiter builds a per-IP limiter for write routes from a formatted rate
// such as "100-S". An empty rate disables limiting.
func rateLimiter(formatted string) (func(http.Handler) http.Handler, error) {
    if formatted == "" {
        return func(next http.Handler) http.Handler { return next }, nil
    }
    rate, err := limiter.NewRateFromFormatted(formatted)
    if err != nil {
        return nil, fmt.Errorf("rate limit %q: %w", formatted, err)
    }
    mw := stdlib.NewMiddleware(
        limiter.New(limitmem.NewStore(), rate),
        stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
            writeErr(w, http.StatusTooManyRequests, "rate limit exceeded", "rate_limited")
        }),
    )
    return mw.Handler, nil
}
