package ticketnumber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func fixedClock(year int) Clock {
	return func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
}

type takenSet struct {
	mu     sync.Mutex
	taken  map[string]bool
	checks int
}

func (s *takenSet) ExistsByNumber(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks++
	return s.taken[number], nil
}

type failingLookup struct{}

func (failingLookup) ExistsByNumber(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "TK-2026-00042", Format("TK", 2026, 42))
	assert.Equal(t, "TK-2026-123456", Format("TK", 2026, 123456))
}

func TestSequenceWithMemoryCounter(t *testing.T) {
	ctx := context.Background()
	g := NewSequence("TK", NewMemoryCounter(), fixedClock(2026))

	a, err := g.Next(ctx, nil)
	require.NoError(t, err)
	b, err := g.Next(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, "TK-2026-00001", a)
	assert.Equal(t, "TK-2026-00002", b)
}

func TestSequenceRejectsCounterPastFiveDigits(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryCounter()
	g := NewSequence("TK", counter, fixedClock(2026))

	_, err := counter.Add(ctx, 2026, MaxCounter-1)
	require.NoError(t, err)
	last, err := g.Next(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "TK-2026-99999", last)

	_, err = g.Next(ctx, nil)
	assert.True(t, apperrors.IsConflict(err))
}

func TestSequenceCounterIsPerYear(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryCounter()

	_, err := NewSequence("TK", counter, fixedClock(2025)).Next(ctx, nil)
	require.NoError(t, err)
	got, err := NewSequence("TK", counter, fixedClock(2026)).Next(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, "TK-2026-00001", got)
}

func TestSequenceWithRedisCounter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	g := NewSequence("TK", NewRedisCounter(client, ""), fixedClock(2026))

	var wg sync.WaitGroup
	results := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := g.Next(ctx, nil)
			if assert.NoError(t, err) {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for n := range results {
		assert.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, 20)

	stored, err := mr.Get("ticketnumber:2026")
	require.NoError(t, err)
	assert.Equal(t, "20", stored)
}

func TestRedisCounterRejectsBadOffset(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := NewRedisCounter(client, "x").Add(context.Background(), 2026, 0)
	assert.Error(t, err)
}

func TestRandomReturnsFreeCandidate(t *testing.T) {
	g := NewRandom("TK", 3, time.Millisecond, fixedClock(2026), 7)
	lookup := &takenSet{taken: map[string]bool{}}

	n, err := g.Next(context.Background(), lookup)
	require.NoError(t, err)

	assert.Regexp(t, `^TK-2026-[1-9]\d{4}$`, n)
	assert.Equal(t, 1, lookup.checks)
}

func TestRandomRetriesUntilFree(t *testing.T) {
	// Same seed yields the same draws, so the first candidate of a twin generator is known.
	first, err := NewRandom("TK", 1, 0, fixedClock(2026), 99).Next(context.Background(), &takenSet{taken: map[string]bool{}})
	require.NoError(t, err)

	lookup := &takenSet{taken: map[string]bool{first: true}}
	got, err := NewRandom("TK", 5, time.Millisecond, fixedClock(2026), 99).Next(context.Background(), lookup)
	require.NoError(t, err)

	assert.NotEqual(t, first, got)
	assert.GreaterOrEqual(t, lookup.checks, 2)
}

func TestRandomExhaustionIsConflict(t *testing.T) {
	g := NewRandom("TK", 3, time.Millisecond, fixedClock(2026), 1)
	lookup := &alwaysTaken{}

	_, err := g.Next(context.Background(), lookup)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 3, lookup.checks)
}

func TestRandomPropagatesLookupErrors(t *testing.T) {
	g := NewRandom("TK", 3, time.Millisecond, fixedClock(2026), 1)
	_, err := g.Next(context.Background(), failingLookup{})
	assert.EqualError(t, err, "db down")
}

func TestRandomStopsOnCancelledContext(t *testing.T) {
	g := NewRandom("TK", 3, time.Hour, fixedClock(2026), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Next(ctx, &alwaysTaken{})
	assert.ErrorIs(t, err, context.Canceled)
}

type alwaysTaken struct{ checks int }

func (a *alwaysTaken) ExistsByNumber(context.Context, string) (bool, error) {
	a.checks++
	return true, nil
}

func TestResolve(t *testing.T) {
	g, err := Resolve(config.TicketNumberConfig{Strategy: config.TicketNumberSequence, Prefix: "TK"}, NewMemoryCounter(), nil)
	require.NoError(t, err)
	assert.Equal(t, "sequence", g.Name())

	g, err = Resolve(config.TicketNumberConfig{Strategy: config.TicketNumberRandom, Prefix: "TK", MaxAttempts: 2}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "random", g.Name())

	_, err = Resolve(config.TicketNumberConfig{Strategy: config.TicketNumberSequence}, nil, nil)
	assert.Error(t, err)

	_, err = Resolve(config.TicketNumberConfig{Strategy: "date"}, nil, nil)
	assert.Error(t, err)
}
