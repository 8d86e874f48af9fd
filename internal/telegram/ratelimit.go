package telegram

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter controls the frequency of requests to the Telegram API.
// On top of the steady token bucket it honors FLOOD_WAIT penalties reported
// by the server.
type RateLimiter struct {
	limiter *rate.Limiter

	floodWaitUntil time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a rate limiter with the given requests-per-second
// budget and burst size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// DefaultRateLimiter returns a limiter with conservative settings suitable
// for a single always-on account.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(2.0, 1)
}

// Wait blocks until the next request is allowed.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	waitUntil := r.floodWaitUntil
	r.mu.Unlock()

	if time.Now().Before(waitUntil) {
		select {
		case <-time.After(time.Until(waitUntil)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return r.limiter.Wait(ctx)
}

// SetFloodWait pauses all requests for the server-requested duration.
func (r *RateLimiter) SetFloodWait(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.floodWaitUntil = time.Now().Add(d)
}
