package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/terminally-online/typewriter/internal/apperr"
)

type RateLimiter struct {
	// TrustProxy keys clients by X-Forwarded-For and X-Real-IP. Enable it
	// only behind a proxy that overwrites those headers.
	TrustProxy bool

	mu       sync.Mutex
	requests map[string]*clientRequests
	limit    int
	window   time.Duration
	stop     chan struct{}
	once     sync.Once
}

type clientRequests struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string]*clientRequests),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	client, exists := rl.requests[clientIP]
	if !exists || now.After(client.windowEnd) {
		rl.requests[clientIP] = &clientRequests{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		return true
	}

	if client.count >= rl.limit {
		return false
	}

	client.count++
	return true
}

func (rl *RateLimiter) Remaining(clientIP string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.requests[clientIP]
	if !exists || time.Now().After(client.windowEnd) {
		return rl.limit
	}

	remaining := rl.limit - client.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for ip, client := range rl.requests {
				if now.After(client.windowEnd) {
					delete(rl.requests, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware rejects clients over their budget. A limit of zero or less
// disables limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := getClientIP(r, rl.TrustProxy)

		if !rl.Allow(clientIP) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, apperr.New(apperr.CodeTooManyRequests, "rate limit exceeded"))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(clientIP)))

		next.ServeHTTP(w, r)
	})
}

func getClientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
