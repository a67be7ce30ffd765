package middleware

import (
	"net"
	"net/http"

	"github.com/mnbarber/bookden/pkg/logger"
	"github.com/mnbarber/bookden/pkg/ratelimit"
)

// RateLimitMiddleware throttles requests per authenticated user, falling
// back to the remote address for unauthenticated routes.
func RateLimitMiddleware(limiter *ratelimit.KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.Allow(key) {
				logger.Log.WithField("key", key).Warn("Rate limit exceeded")
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if claims := GetUserFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
