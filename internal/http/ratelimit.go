package http

import (
	"sync"
	"time"
)

const (
	// postLimit is the number of POST requests allowed per client IP within
	// one window.
	postLimit  = 60
	postWindow = time.Minute

	cleanupEvery = 5 * time.Minute
	staleAfter   = 10 * time.Minute
)

// rateLimiter counts POST requests per client IP over a fixed window. A
// background goroutine drops idle entries so the map does not grow without
// bound.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	once    sync.Once
}

type window struct {
	startedAt time.Time
	count     int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go rl.reap()
	return rl
}

// allow records one request for the IP and reports whether it is still
// within the window's budget.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.startedAt) > postWindow {
		rl.windows[clientIP] = &window{startedAt: now, count: 1}
		return true
	}
	w.count++
	return w.count <= postLimit
}

func (rl *rateLimiter) reap() {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-staleAfter)
			rl.mu.Lock()
			for ip, w := range rl.windows {
				if w.startedAt.Before(cutoff) {
					delete(rl.windows, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}
