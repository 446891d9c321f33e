package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wudi/cardkit/observability"
)

// fakeLookup scripts NamedFuzzy responses and counts calls.
type fakeLookup struct {
	mu      sync.Mutex
	calls   int
	respond func(call int, name string) (Card, error)
}

func (f *fakeLookup) NamedFuzzy(ctx context.Context, name string) (Card, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.respond(call, name)
}

func (f *fakeLookup) Search(ctx context.Context, query string, limit int) ([]Card, error) {
	return []Card{{Name: "Search Hit"}}, nil
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestMatcher(lookup Lookup) *Matcher {
	m := NewMatcher(lookup, NewCache(time.Minute, 0), NewLimiter(1000, 1000))
	m.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return m
}

func TestMatchSuccessIsCached(t *testing.T) {
	lookup := &fakeLookup{respond: func(int, string) (Card, error) {
		return Card{Name: "Sol Ring"}, nil
	}}
	m := newTestMatcher(lookup)

	for i := 0; i < 2; i++ {
		card, err := m.Match(context.Background(), "sol ring")
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if card == nil || card.Name != "Sol Ring" {
			t.Fatalf("card = %+v", card)
		}
	}
	if lookup.callCount() != 1 {
		t.Fatalf("lookup called %d times, want 1", lookup.callCount())
	}
}

func TestMatchNotFound(t *testing.T) {
	lookup := &fakeLookup{respond: func(int, string) (Card, error) {
		return Card{}, ErrNotFound
	}}
	m := newTestMatcher(lookup)

	card, err := m.Match(context.Background(), "xyzzy")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if card != nil {
		t.Fatalf("card = %+v, want nil", card)
	}
	if lookup.callCount() != 1 {
		t.Fatalf("not-found must not be retried, got %d calls", lookup.callCount())
	}
}

func TestMatchRetriesTransientOnce(t *testing.T) {
	lookup := &fakeLookup{respond: func(call int, _ string) (Card, error) {
		if call == 1 {
			return Card{}, fmt.Errorf("catalog request: connection reset")
		}
		return Card{Name: "Sol Ring"}, nil
	}}
	m := newTestMatcher(lookup)

	card, err := m.Match(context.Background(), "sol ring")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if card == nil || card.Name != "Sol Ring" {
		t.Fatalf("card = %+v", card)
	}
	if lookup.callCount() != 2 {
		t.Fatalf("lookup called %d times, want 2", lookup.callCount())
	}
}

func TestMatchPersistentFailureIsNoMatch(t *testing.T) {
	lookup := &fakeLookup{respond: func(int, string) (Card, error) {
		return Card{}, errors.New("catalog status 500")
	}}
	m := newTestMatcher(lookup)

	card, err := m.Match(context.Background(), "sol ring")
	if err != nil {
		t.Fatalf("persistent failure must demote to no-match, got error %v", err)
	}
	if card != nil {
		t.Fatalf("card = %+v, want nil", card)
	}
	if lookup.callCount() != 2 {
		t.Fatalf("lookup called %d times, want exactly one retry", lookup.callCount())
	}
}

func TestMatchEmptyNameSkipsLookup(t *testing.T) {
	lookup := &fakeLookup{respond: func(int, string) (Card, error) {
		return Card{}, nil
	}}
	m := newTestMatcher(lookup)

	card, err := m.Match(context.Background(), "")
	if err != nil || card != nil {
		t.Fatalf("card = %+v, err = %v", card, err)
	}
	if lookup.callCount() != 0 {
		t.Fatalf("empty name must not reach the catalog")
	}
}

func TestMatchCancelled(t *testing.T) {
	lookup := &fakeLookup{respond: func(int, string) (Card, error) {
		return Card{}, context.Canceled
	}}
	m := newTestMatcher(lookup)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Match(ctx, "sol ring"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

// recordingMetrics counts emissions per metric name.
type recordingMetrics struct {
	mu       sync.Mutex
	counts   map[string]int
	observed map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: map[string]int{}, observed: map[string]int{}}
}

func (m *recordingMetrics) Incr(name string, delta int) {
	m.mu.Lock()
	m.counts[name] += delta
	m.mu.Unlock()
}

func (m *recordingMetrics) Observe(name string, _ float64) {
	m.mu.Lock()
	m.observed[name]++
	m.mu.Unlock()
}

func TestMatcherEmitsCacheMetrics(t *testing.T) {
	lookup := &fakeLookup{respond: func(int, string) (Card, error) {
		return Card{Name: "Sol Ring"}, nil
	}}
	metrics := newRecordingMetrics()
	m := NewMatcher(lookup, NewCache(time.Minute, 0), NewLimiter(1000, 1000), WithMetrics(metrics))

	for i := 0; i < 2; i++ {
		if _, err := m.Match(context.Background(), "sol ring"); err != nil {
			t.Fatalf("Match() error = %v", err)
		}
	}

	if got := metrics.counts[observability.MetricCacheMisses]; got != 1 {
		t.Fatalf("cache misses = %d, want 1", got)
	}
	if got := metrics.counts[observability.MetricCacheHits]; got != 1 {
		t.Fatalf("cache hits = %d, want 1", got)
	}
	if got := metrics.observed[observability.MetricLookupTime]; got != 1 {
		t.Fatalf("lookup duration observed %d times, want 1", got)
	}
	if got := metrics.observed[observability.MetricLimiterWait]; got != 1 {
		t.Fatalf("limiter wait observed %d times, want 1", got)
	}
	if got := metrics.counts[observability.MetricLookupRetries]; got != 0 {
		t.Fatalf("retries = %d, want 0", got)
	}
}

func TestMatcherSearch(t *testing.T) {
	m := newTestMatcher(&fakeLookup{})
	cards, err := m.Search(context.Background(), "ring", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cards) != 1 || cards[0].Name != "Search Hit" {
		t.Fatalf("cards = %+v", cards)
	}
}
