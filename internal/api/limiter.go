package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per user. Buckets idle for longer than the
// TTL are dropped by Sweep.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// NewLimiter admits rps writes per second per user with the given burst.
// A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*limiterEntry),
		limit: limit,
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
}

// Allow reports whether key may write now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		e = &limiterEntry{l: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.lastSeen = l.now()
	lim := e.l
	l.mu.Unlock()
	return lim.Allow()
}

// Len returns the number of tracked users.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Sweep drops buckets not used since the TTL.
func (l *Limiter) Sweep() {
	cutoff := l.now().Add(-l.ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.m {
		if e.lastSeen.Before(cutoff) {
			delete(l.m, k)
		}
	}
}

// Run sweeps every period until Shutdown.
func (l *Limiter) Run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

// Shutdown stops Run.
func (l *Limiter) Shutdown() {
	l.stopOnce.Do(func() { close(l.stop) })
}
