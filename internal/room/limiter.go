package room

import "time"

type rateTracker struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a fixed-window message counter keyed by connection id.
// A client can burst up to twice the limit across a window boundary; that
// approximation matches the protocol contract. Trackers for closed
// connections are not reclaimed; the table is bounded by the number of
// connections the room has seen in this actor's lifetime.
//
// Not safe for concurrent use; confined to the owning actor's goroutine.
type RateLimiter struct {
	limit    int
	window   time.Duration
	trackers map[string]*rateTracker
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		trackers: make(map[string]*rateTracker),
	}
}

// Allow reports whether the connection may send another message at now,
// charging the window counter when it may. A denied message is not charged.
func (r *RateLimiter) Allow(connID string, now time.Time) bool {
	t, ok := r.trackers[connID]
	if !ok || now.Sub(t.windowStart) > r.window {
		r.trackers[connID] = &rateTracker{count: 1, windowStart: now}
		return true
	}

	if t.count >= r.limit {
		return false
	}

	t.count++
	return true
}
