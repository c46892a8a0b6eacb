package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable time source.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(t *testing.T, ttl time.Duration) (*Cache[string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New[string](16, ttl, WithClock[string](clock.Now)), clock
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestLazyExpiry(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.Set("k", "v")
	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)

	// The expired entry was evicted, not just hidden.
	assert.Equal(t, 0, c.Size())
}

func TestSetRefreshesTTL(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.Set("k", "v1")
	clock.Advance(50 * time.Second)
	c.Set("k", "v2")
	clock.Advance(50 * time.Second)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestSizeCountsLiveEntries(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	assert.Equal(t, 2, c.Size())

	clock.Advance(30 * time.Second)
	c.Set("c", "3")
	clock.Advance(45 * time.Second) // a and b expired, c alive
	assert.Equal(t, 1, c.Size())
}

func TestClearAndDelete(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCapacityBound(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := New[int](2, time.Hour, WithClock[int](clock.Now))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts a

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestGetOrCompute(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	calls := 0
	compute := func() (string, error) {
		calls++
		return "computed", nil
	}

	v, hit, err := c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "computed", v)

	v, hit, err = c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls)
}

func TestGetOrCompute_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	wantErr := errors.New("transient")
	_, _, err := c.GetOrCompute("k", func() (string, error) { return "", wantErr })
	assert.ErrorIs(t, err, wantErr)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoize(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	calls := 0
	load := Memoize(c, "load", func(_ context.Context, id string) (string, error) {
		calls++
		return "value:" + id, nil
	})

	v, err := load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value:a", v)

	v, err = load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value:a", v)
	assert.Equal(t, 1, calls)

	_, err = load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoize_ExpiryRecomputes(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	ctx := context.Background()

	calls := 0
	load := Memoize(c, "load", func(_ context.Context, id string) (string, error) {
		calls++
		return id, nil
	})

	_, err := load(ctx, "a")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoize_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	wantErr := errors.New("transient")
	calls := 0
	load := Memoize(c, "load", func(_ context.Context, id string) (string, error) {
		calls++
		if calls == 1 {
			return "", wantErr
		}
		return id, nil
	})

	_, err := load(ctx, "a")
	assert.ErrorIs(t, err, wantErr)

	v, err := load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestKey_OrderIndependentKwargs(t *testing.T) {
	a := Key("search", []any{"query"}, map[string]any{"user": "u1", "top_k": 5})
	b := Key("search", []any{"query"}, map[string]any{"top_k": 5, "user": "u1"})
	assert.Equal(t, a, b)
}

func TestKey_Distinguishes(t *testing.T) {
	base := Key("search", []any{"query"}, map[string]any{"user": "u1"})

	assert.NotEqual(t, base, Key("read", []any{"query"}, map[string]any{"user": "u1"}))
	assert.NotEqual(t, base, Key("search", []any{"other"}, map[string]any{"user": "u1"}))
	assert.NotEqual(t, base, Key("search", []any{"query"}, map[string]any{"user": "u2"}))
	assert.NotEqual(t, base, Key("search", []any{"query"}, nil))
}
