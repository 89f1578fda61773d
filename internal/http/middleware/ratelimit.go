package middleware

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/ratelimit"
)

// IPLimit throttles all inbound traffic per client address, before any
// authentication happens.
func IPLimit(limiter *ratelimit.Limiter, logger *zap.Logger, development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiter.Allow(r.Context(), "ip:"+ClientIP(r))
			SetRateHeaders(w, res)
			if !res.Allowed {
				httpx.WriteError(w, r, httpx.TooManyRequests("Too many requests."), development, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetRateHeaders advertises the remaining budget of the most specific
// limiter consulted so far.
func SetRateHeaders(w http.ResponseWriter, res ratelimit.Result) {
	if res.Remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	}
	if !res.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	}
}
