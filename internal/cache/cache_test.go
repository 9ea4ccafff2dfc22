package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUPurge(t *testing.T) {
	c := NewLRU[int](5, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	assert.Zero(t, c.Size())
	c.Set("a", 3)
	v, _ := c.Get("a")
	assert.Equal(t, 3, v)
}

func TestLoaderCollapsesConcurrentMisses(t *testing.T) {
	l := NewLoader[int](NewLRU[int](10, time.Minute))
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	v, err := l.Get(context.Background(), "k", func(context.Context) (int, error) {
		t.Fatal("cached value expected")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.GreaterOrEqual(t, l.Stats().Hits, int64(1))
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	l := NewLoader[int](NewLRU[int](10, time.Minute))
	boom := errors.New("boom")

	_, err := l.Get(context.Background(), "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := l.Get(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	l.Invalidate()
	assert.Zero(t, l.Stats().Size)
}

func TestLoaderSharedLoadSurvivesCallerCancel(t *testing.T) {
	l := NewLoader[int](NewLRU[int](10, time.Minute))
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (int, error) {
		close(started)
		select {
		case <-release:
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := l.Get(ctxA, "k", load)
		errA <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := l.Get(context.Background(), "k", func(context.Context) (int, error) {
			t.Error("second caller should share the in-flight load")
			return 0, nil
		})
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	got := <-resB
	require.NoError(t, got.err)
	assert.Equal(t, 42, got.v)
}

func TestLoaderInvalidateDuringLoad(t *testing.T) {
	l := NewLoader[string](NewLRU[string](10, time.Minute))
	started := make(chan struct{})
	release := make(chan struct{})

	stale := make(chan string, 1)
	go func() {
		v, _ := l.Get(context.Background(), "k", func(context.Context) (string, error) {
			close(started)
			<-release
			return "before import", nil
		})
		stale <- v
	}()
	<-started

	l.Invalidate()
	close(release)
	assert.Equal(t, "before import", <-stale)
	assert.Zero(t, l.Stats().Size, "a load that raced an invalidation must not be cached")

	v, err := l.Get(context.Background(), "k", func(context.Context) (string, error) {
		return "after import", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after import", v)
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	c := NewLRU[int](10, time.Nanosecond)
	c.Set("a", 1)
	j := NewJanitor(nil, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
