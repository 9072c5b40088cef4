// Package ratelimit bounds outbound API call rate with a sliding window:
// at any instant at most maxRequests admissions fall inside the trailing
// period.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	period      time.Duration
	stamps      []time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func New(maxRequests int, period time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if period <= 0 {
		period = time.Second
	}
	return &Limiter{
		maxRequests: maxRequests,
		period:      period,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Acquire blocks until issuing one more call keeps the trailing window at or
// below the limit, then records the admission. Acquisition is a single
// critical section, so waiters are serialized and none starves. The only
// error is context cancellation.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.stamps) >= l.maxRequests {
		wait := l.period - now.Sub(l.stamps[0])
		if wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
		now = l.now()
		l.evict(now)
		// The oldest stamp has aged out after the precise wait; if eviction
		// did not free a slot (clock skew), force the oldest one out.
		if len(l.stamps) >= l.maxRequests {
			l.stamps = l.stamps[1:]
		}
	}

	l.stamps = append(l.stamps, now)
	return nil
}

func (l *Limiter) evict(now time.Time) {
	cut := 0
	for cut < len(l.stamps) && now.Sub(l.stamps[cut]) >= l.period {
		cut++
	}
	if cut > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[cut:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
