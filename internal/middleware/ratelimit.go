package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/cache"
)

const (
	loginLimit       = 5
	loginWindow      = time.Minute
	webhookLimit     = 120
	webhookWindow    = time.Minute
	storefrontLimit  = 60
	storefrontWindow = time.Minute
	enrollLimit      = 10
	enrollWindow     = time.Minute
)

func RateLimitLogin(cacheClient cache.Client) func(http.Handler) http.Handler {
	return limitByIP(cacheClient, "rl:login:", loginLimit, loginWindow)
}

func RateLimitWebhook(cacheClient cache.Client) func(http.Handler) http.Handler {
	return limitByIP(cacheClient, "rl:webhook:", webhookLimit, webhookWindow)
}

func RateLimitStorefront(cacheClient cache.Client) func(http.Handler) http.Handler {
	return limitByIP(cacheClient, "rl:store:", storefrontLimit, storefrontWindow)
}

func RateLimitEnroll(cacheClient cache.Client) func(http.Handler) http.Handler {
	return limitByIP(cacheClient, "rl:enroll:", enrollLimit, enrollWindow)
}

func limitByIP(cacheClient cache.Client, prefix string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := prefix + ClientIP(r)
			count, err := cacheClient.IncrWithTTL(key, window)
			if err == nil && count > limit {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
