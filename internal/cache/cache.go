// Package cache provides the in-process caches used in front of read-heavy
// queries, plus a janitor that drops expired entries.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Loader fronts a Cache and collapses concurrent misses for the same key
// into a single load.
type Loader[T any] struct {
	cache  Cache[T]
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64

	// mu orders Set after a load against Invalidate.
	mu  sync.Mutex
	gen uint64
}

func NewLoader[T any](c Cache[T]) *Loader[T] {
	return &Loader[T]{cache: c}
}

// Get returns the cached value for key or runs load once for all waiting callers.
// Failed loads are not cached. The shared load runs on a context detached from
// any single caller's cancellation; a cancelled caller stops waiting on its own.
func (l *Loader[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := l.cache.Get(key); ok {
		l.hits.Add(1)
		return v, nil
	}
	l.misses.Add(1)

	gen := l.generation()
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(strconv.FormatUint(gen, 10)+"/"+key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		l.mu.Lock()
		if l.gen == gen {
			l.cache.Set(key, v)
		}
		l.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (l *Loader[T]) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Invalidate drops every cached value. Loads already in flight still answer
// their callers but no longer populate the cache.
func (l *Loader[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.cache.Purge()
}

type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

func (l *Loader[T]) Stats() Stats {
	return Stats{Hits: l.hits.Load(), Misses: l.misses.Load(), Size: l.cache.Size()}
}

// Janitor periodically cleans every registered cache.
type Janitor struct {
	caches []Cleaner
	logger *slog.Logger
}

func NewJanitor(logger *slog.Logger, caches ...Cleaner) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{caches: caches, logger: logger}
}

// Sweep cleans every cache once and returns the number of dropped entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("Expired cache entries dropped", "count", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
