package evt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Event bus", func() {
	It("should deliver published events to subscribers", func() {
		received := make(chan string, 1)
		fn := func(domain string) { received <- domain }

		Expect(Bus().Subscribe(ResolverCacheFlushed, fn)).Should(Succeed())
		DeferCleanup(func() { _ = Bus().Unsubscribe(ResolverCacheFlushed, fn) })

		Bus().Publish(ResolverCacheFlushed, "www.example.com.")

		Eventually(received).Should(Receive(Equal("www.example.com.")))
	})
})
