package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/wudi/cardkit/observability"
)

// Lookup is the remote capability the Matcher consumes. *Client satisfies
// it; tests substitute fakes.
type Lookup interface {
	NamedFuzzy(ctx context.Context, name string) (Card, error)
	Search(ctx context.Context, query string, limit int) ([]Card, error)
}

// Matcher resolves normalized names to card records through the shared cache
// and rate limiter. Lookup failures (not found, network errors, timeouts) all
// demote to "no match": a missing card must never abort a scan.
type Matcher struct {
	lookup  Lookup
	cache   *Cache
	limiter *Limiter
	backoff time.Duration
	log     observability.Logger
	metrics observability.Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithLogger attaches a logger.
func WithLogger(log observability.Logger) MatcherOption {
	return func(m *Matcher) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(metrics observability.Metrics) MatcherOption {
	return func(m *Matcher) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithRetryBackoff sets the pause before the single transient-failure retry.
func WithRetryBackoff(d time.Duration) MatcherOption {
	return func(m *Matcher) { m.backoff = d }
}

// NewMatcher wires a lookup to the process-wide cache and limiter.
func NewMatcher(lookup Lookup, cache *Cache, limiter *Limiter, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		lookup:  lookup,
		cache:   cache,
		limiter: limiter,
		backoff: 500 * time.Millisecond,
		log:     observability.NopLogger{},
		metrics: observability.NopMetrics{},
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match resolves a normalized name to a card record. A nil card with a nil
// error means "no match". The only returned errors are context
// cancellation and deadline expiry.
func (m *Matcher) Match(ctx context.Context, name string) (*Card, error) {
	if name == "" {
		return nil, nil
	}
	if card, ok := m.cache.Get(name); ok {
		m.metrics.Incr(observability.MetricCacheHits, 1)
		m.log.Debug("catalog: cache hit", observability.String("name", name))
		return &card, nil
	}
	m.metrics.Incr(observability.MetricCacheMisses, 1)

	// One bounded retry for transient failures; persistent trouble is a
	// per-slot "no match", not an error.
	for attempt := 0; attempt < 2; attempt++ {
		waitStart := time.Now()
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		m.metrics.Observe(observability.MetricLimiterWait, time.Since(waitStart).Seconds())

		lookupStart := time.Now()
		card, err := m.lookup.NamedFuzzy(ctx, name)
		m.metrics.Observe(observability.MetricLookupTime, time.Since(lookupStart).Seconds())
		if err == nil {
			m.cache.Put(name, card)
			return &card, nil
		}
		if errors.Is(err, ErrNotFound) {
			m.log.Debug("catalog: no match", observability.String("name", name))
			return nil, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		m.log.Warn("catalog: lookup failed",
			observability.String("name", name),
			observability.Int("attempt", attempt),
			observability.Error("err", err))
		if attempt == 0 {
			m.metrics.Incr(observability.MetricLookupRetries, 1)
			if err := m.sleep(ctx, m.backoff); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// Search runs a direct name search for manual-override flows, under the same
// rate limit as automatic matching.
func (m *Matcher) Search(ctx context.Context, query string, limit int) ([]Card, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return m.lookup.Search(ctx, query, limit)
}
