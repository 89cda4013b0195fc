package expirationcache

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Expiration cache", func() {
	var (
		ctx      context.Context
		cancelFn context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancelFn = context.WithCancel(context.Background())
		DeferCleanup(cancelFn)
	})

	Describe("Basic operations", func() {
		When("string cache was created", func() {
			It("Initial cache should be empty", func() {
				cache := NewCache[string](ctx, Options{})
				Expect(cache.TotalCount()).Should(Equal(0))
			})
			It("Initial cache should not contain any elements", func() {
				cache := NewCache[string](ctx, Options{})
				val, expiration := cache.Get("key1")
				Expect(val).Should(BeNil())
				Expect(expiration).Should(Equal(time.Duration(0)))
			})
		})

		When("Put new value with positive TTL", func() {
			It("Should return the value before element expires", func() {
				cache := NewCache[string](ctx, Options{CleanupInterval: 100 * time.Millisecond})
				v := "10.0.1.20"
				cache.Put("key1", &v, 50*time.Millisecond)
				val, expiration := cache.Get("key1")
				Expect(val).Should(HaveValue(Equal("10.0.1.20")))
				Expect(expiration.Milliseconds()).Should(BeNumerically("<=", 50))

				Expect(cache.TotalCount()).Should(Equal(1))
			})

			It("Should return nil after expiration and clean up", func() {
				cache := NewCache[string](ctx, Options{CleanupInterval: 20 * time.Millisecond})
				v := "v1"
				cache.Put("key1", &v, 30*time.Millisecond)

				Eventually(func() *string {
					val, _ := cache.Get("key1")

					return val
				}, "500ms").Should(BeNil())

				Eventually(func() int {
					return cache.lru.Len()
				}, "500ms").Should(Equal(0))
			})
		})

		When("Put new value without expiration", func() {
			It("Should not cache the value", func() {
				cache := NewCache[string](ctx, Options{CleanupInterval: 50 * time.Millisecond})
				v := "x"
				cache.Put("key1", &v, 0)
				val, expiration := cache.Get("key1")
				Expect(val).Should(BeNil())
				Expect(expiration.Milliseconds()).Should(BeNumerically("==", 0))
				Expect(cache.TotalCount()).Should(Equal(0))
			})
		})

		When("Put updated value", func() {
			It("Should return updated value", func() {
				cache := NewCache[string](ctx, Options{})
				v1 := "v1"
				v2 := "v2"
				cache.Put("key1", &v1, 50*time.Millisecond)
				cache.Put("key1", &v2, 200*time.Millisecond)

				val, expiration := cache.Get("key1")

				Expect(val).Should(HaveValue(Equal("v2")))
				Expect(expiration.Milliseconds()).Should(BeNumerically(">", 100))
				Expect(cache.TotalCount()).Should(Equal(1))
			})
		})

		When("Delete is called", func() {
			It("should remove only this entry", func() {
				cache := NewCache[string](ctx, Options{})
				v := "x"
				cache.Put("key1", &v, time.Minute)
				cache.Put("key2", &v, time.Minute)

				cache.Delete("key1")

				val, _ := cache.Get("key1")
				Expect(val).Should(BeNil())
				Expect(cache.TotalCount()).Should(Equal(1))
			})
		})

		When("Clear is called", func() {
			It("should remove all entries", func() {
				cache := NewCache[string](ctx, Options{})
				v := "x"
				cache.Put("key1", &v, time.Minute)
				cache.Put("key2", &v, time.Minute)

				cache.Clear()

				Expect(cache.TotalCount()).Should(Equal(0))
			})
		})
	})

	Describe("LRU behaviour", func() {
		When("max size is reached", func() {
			It("should evict the least recently used entry", func() {
				cache := NewCache[string](ctx, Options{MaxSize: 2})
				v := "x"
				cache.Put("key1", &v, time.Minute)
				cache.Put("key2", &v, time.Minute)

				_, _ = cache.Get("key1")
				cache.Put("key3", &v, time.Minute)

				val, _ := cache.Get("key2")
				Expect(val).Should(BeNil())
				Expect(cache.TotalCount()).Should(Equal(2))
			})
		})
	})
})
