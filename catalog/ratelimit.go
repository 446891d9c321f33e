package catalog

import (
	"context"
	"sync"
	"time"
)

// Scryfall asks clients to stay at or below ten requests per second. The
// default single-token bucket spaces calls at least 100ms apart, so no
// rolling one-second window ever admits more than ten.
const (
	DefaultRate  = 10.0
	DefaultBurst = 1
)

// Limiter is a token bucket shared by every catalog call in the process:
// capacity is the burst allowance and tokens refill at a steady rate. One
// instance is created at startup and handed to the Matcher; per-request
// copies would defeat the global ceiling.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time

	// now and sleep are injectable for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter builds a full token bucket refilling at rate tokens/second with
// the given burst capacity. Non-positive arguments select the defaults.
func NewLimiter(rate float64, burst int) *Limiter {
	if rate <= 0 {
		rate = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	l := &Limiter{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		now:    time.Now,
		sleep:  sleepContext,
	}
	l.last = l.now()
	return l
}

// Wait blocks until a token is available or ctx is done. Tokens are never
// dropped and the long-run rate is never exceeded, regardless of how many
// scans contend.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.mu.Lock()
		l.refill()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
		l.mu.Unlock()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// refill credits tokens for the time elapsed since the last update. Caller
// holds mu.
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.rate
		if l.tokens > l.burst {
			l.tokens = l.burst
		}
	}
	l.last = now
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
