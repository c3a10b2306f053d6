package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowRateLimiter admits up to limit calls per key in each window.
// Windows are aligned to the clock, so a key's budget resets for everyone at
// the same instant.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	size    time.Duration
	now     func() time.Time

	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

type window struct {
	count   int
	resetAt time.Time
}

var _ Limiter = (*FixedWindowRateLimiter)(nil)

func NewFixedWindowRateLimiter(limit int, size time.Duration) *FixedWindowRateLimiter {
	return newFixedWindowRateLimiter(limit, size, time.Now)
}

func newFixedWindowRateLimiter(limit int, size time.Duration, now func() time.Time) *FixedWindowRateLimiter {
	if size <= 0 {
		size = time.Second
	}

	rl := &FixedWindowRateLimiter{
		clients:     make(map[string]*window),
		limit:       limit,
		size:        size,
		now:         now,
		cleanupTick: time.NewTicker(size),
		done:        make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Truncate(rl.size).Add(rl.size)}
		rl.clients[key] = w
	}

	if w.count >= rl.limit {
		return false, w.resetAt.Sub(now)
	}

	w.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) startCleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

// cleanup forgets keys whose window has passed.
func (rl *FixedWindowRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.clients {
		if !now.Before(w.resetAt) {
			delete(rl.clients, key)
		}
	}
}

func (rl *FixedWindowRateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
