package middleware

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/securebank/backend/internal/config"
	"github.com/securebank/backend/internal/services"
)

// RateLimit throttles by client address. A zero rate disables it.
func RateLimit(cfg config.RateLimitConfig) func(next http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	lmt := tollbooth.NewLimiter(cfg.RequestsPerSecond, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetBurst(cfg.Burst)
	lmt.SetIPLookups([]string{"RemoteAddr"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpError := tollbooth.LimitByRequest(lmt, w, r); httpError != nil {
				services.SendErrorResponse(w, "Too many requests, please try again later", httpError.StatusCode, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
