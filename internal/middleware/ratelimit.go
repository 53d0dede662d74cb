// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter allows at most limit requests per client IP in any sliding
// window. It guards the login and second-factor forms.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

// NewRateLimiter creates a limiter and starts a goroutine that forgets
// idle clients every window (at least once a minute). Call Stop to end it.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	every := max(window, time.Minute)
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// allow records a hit for key. When the window is full it returns false
// and how long until the oldest hit leaves the window.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	hits := recent(rl.hits[key], now.Add(-rl.window))
	if len(hits) >= rl.limit {
		rl.hits[key] = hits
		return false, hits[0].Add(rl.window).Sub(now)
	}
	rl.hits[key] = append(hits, now)
	return true, 0
}

// recent drops hits at or before cutoff. Hits are in ascending order.
func recent(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// cleanup forgets clients with no hit inside the window.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	for key, hits := range rl.hits {
		if len(recent(hits, cutoff)) == 0 {
			delete(rl.hits, key)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		ok, wait := rl.allow(ip)
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "retry_after", secs)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			fail(w, r, "Too many attempts. Please wait and try again.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the client address, preferring the Client-IP,
// X-Forwarded-For (leftmost entry) and X-Real-IP headers set by a proxy.
func ClientIP(r *http.Request) string {
	for _, h := range []string{"Client-IP", "X-Forwarded-For", "X-Real-IP"} {
		v := r.Header.Get(h)
		if first, _, _ := strings.Cut(v, ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
