package expirationcache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const (
	defaultCleanUpInterval = 10 * time.Second
	defaultSize            = 10_000
)

type element[T any] struct {
	val            *T
	expiresEpochMs int64
}

type ExpiringLRUCache[T any] struct {
	cleanUpInterval time.Duration
	lru             *lru.Cache
}

type Options struct {
	CleanupInterval time.Duration
	MaxSize         uint
}

// NewCache creates a new cache. The cleanup routine stops if ctx is done.
func NewCache[T any](ctx context.Context, options Options) *ExpiringLRUCache[T] {
	size := defaultSize
	if options.MaxSize > 0 {
		size = int(options.MaxSize)
	}

	l, _ := lru.New(size)
	c := &ExpiringLRUCache[T]{
		cleanUpInterval: defaultCleanUpInterval,
		lru:             l,
	}

	if options.CleanupInterval > 0 {
		c.cleanUpInterval = options.CleanupInterval
	}

	go periodicCleanup(ctx, c)

	return c
}

func periodicCleanup[T any](ctx context.Context, c *ExpiringLRUCache[T]) {
	ticker := time.NewTicker(c.cleanUpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanUp()
		case <-ctx.Done():
			return
		}
	}
}

func (e *ExpiringLRUCache[T]) cleanUp() {
	for _, k := range e.lru.Keys() {
		if v, ok := e.lru.Peek(k); ok && isExpired(v.(*element[T])) {
			e.lru.Remove(k)
		}
	}
}

func (e *ExpiringLRUCache[T]) Put(key string, val *T, ttl time.Duration) {
	if ttl <= 0 {
		// entry should be considered as already expired
		return
	}

	expiresEpochMs := time.Now().UnixMilli() + ttl.Milliseconds()

	e.lru.Add(key, &element[T]{
		val:            val,
		expiresEpochMs: expiresEpochMs,
	})
}

func (e *ExpiringLRUCache[T]) Get(key string) (val *T, ttl time.Duration) {
	el, found := e.lru.Get(key)
	if !found {
		return nil, 0
	}

	v := el.(*element[T])
	if isExpired(v) {
		return nil, 0
	}

	return v.val, calculateRemainTTL(v.expiresEpochMs)
}

func (e *ExpiringLRUCache[T]) Delete(key string) {
	e.lru.Remove(key)
}

func isExpired[T any](el *element[T]) bool {
	return el.expiresEpochMs > 0 && time.Now().UnixMilli() > el.expiresEpochMs
}

func calculateRemainTTL(expiresEpoch int64) time.Duration {
	if now := time.Now().UnixMilli(); now < expiresEpoch {
		return time.Duration(expiresEpoch-now) * time.Millisecond
	}

	return 0
}

func (e *ExpiringLRUCache[T]) TotalCount() (count int) {
	return e.lru.Len()
}

func (e *ExpiringLRUCache[T]) Clear() {
	e.lru.Purge()
}
