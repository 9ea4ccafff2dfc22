// Package ratelimit throttles state-changing requests per client IP using a
// fixed one-minute window.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window     = time.Minute
	staleAfter = 10 * time.Minute
)

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	now     func() time.Time

	requestsPerMinute int
	cleanupInterval   time.Duration

	limited int64
}

type clientWindow struct {
	started  time.Time
	requests int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	return &Limiter{
		clients:           make(map[string]*clientWindow),
		now:               time.Now,
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
}

// Allow reports whether clientIP may make another request in its current window.
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[clientIP]
	if !ok || now.Sub(client.started) >= window {
		rl.clients[clientIP] = &clientWindow{started: now, requests: 1}
		return true
	}

	client.requests++
	if client.requests > rl.requestsPerMinute {
		atomic.AddInt64(&rl.limited, 1)
		return false
	}
	return true
}

// Run evicts idle clients until ctx is done.
func (rl *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-ctx.Done():
			return
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleAfter)
	for ip, client := range rl.clients {
		if client.started.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Limited returns how many requests have been rejected since start.
func (rl *Limiter) Limited() int64 {
	return atomic.LoadInt64(&rl.limited)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Middleware applies the limiter to POST, PUT, PATCH and DELETE requests.
// Reads are never throttled.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isMutating(r.Method) && !rl.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
