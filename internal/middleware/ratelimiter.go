package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models/dto"
	"golang.org/x/time/rate"
)

const (
	MsgTooManyRequests = "Too many requests. Please try again later."

	RateLimitedTotal     = "rate_limited_requests_total"
	RateLimitedTotalHelp = "Total number of requests rejected by the rate limiter"
)

// NewLimiter builds a token bucket from a per-second rate and burst.
// A non-positive rate yields nil, which RateLimitMiddleware treats as unlimited.
func NewLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// RateLimitMiddleware rejects requests with 429 once limiter runs dry.
// metrics may be nil.
func RateLimitMiddleware(limiter *rate.Limiter, metrics interfaces.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				if metrics != nil {
					metrics.IncCounterVec(RateLimitedTotal, r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				resp := dto.RateLimitResponse{Message: MsgTooManyRequests}
				_ = json.NewEncoder(w).Encode(resp)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterMetrics registers the limiter's rejection counter, labelled by path.
func RegisterMetrics(m interfaces.Metrics) {
	m.RegisterCounterVec(RateLimitedTotal, RateLimitedTotalHelp, []string{"path"})
}
