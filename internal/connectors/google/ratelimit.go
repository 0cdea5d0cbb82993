package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ServiceType identifies which Google API a limiter paces.
type ServiceType string

const (
	ServiceGmail    ServiceType = "gmail"
	ServiceDrive    ServiceType = "drive"
	ServiceCalendar ServiceType = "calendar"
)

// defaultBackoff applies when the API returns 429 without a usable
// Retry-After hint.
const defaultBackoff = 60 * time.Second

// Sustained rates stay well under Google's published per-user quotas,
// since interactive commands may run while an ingest is in flight.
var serviceRates = map[ServiceType]struct {
	perSecond rate.Limit
	burst     int
}{
	ServiceGmail:    {perSecond: 2, burst: 5},
	ServiceDrive:    {perSecond: 8, burst: 10},
	ServiceCalendar: {perSecond: 5, burst: 10},
}

// RateLimiter paces requests to one Google API. Each connector owns a
// single limiter shared across all calls it makes. On top of the token
// bucket, a 429 from the API opens a backoff window that Wait honours
// before touching the bucket again.
type RateLimiter struct {
	bucket *rate.Limiter

	mu           sync.Mutex
	backoffUntil time.Time
}

// NewRateLimiter creates a limiter tuned for the given service.
// Unknown services get a middle-of-the-road rate.
func NewRateLimiter(service ServiceType) *RateLimiter {
	r, ok := serviceRates[service]
	if !ok {
		r.perSecond, r.burst = 5, 10
	}
	return &RateLimiter{bucket: rate.NewLimiter(r.perSecond, r.burst)}
}

// Wait blocks until a request may be sent, or the context ends.
func (l *RateLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	until := l.backoffUntil
	l.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.bucket.Wait(ctx)
}

// RecordRateLimitError opens a backoff window after a 429 response.
// retryAfterSeconds comes from the Retry-After header; zero or
// negative means the header was absent.
func (l *RateLimiter) RecordRateLimitError(retryAfterSeconds int) {
	backoff := defaultBackoff
	if retryAfterSeconds > 0 {
		backoff = time.Duration(retryAfterSeconds) * time.Second
	}

	l.mu.Lock()
	l.backoffUntil = time.Now().Add(backoff)
	l.mu.Unlock()
}
