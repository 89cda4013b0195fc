package collector

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Collector", func() {
	var sut *Collector

	BeforeEach(func() {
		sut = New(3)

		fixed := time.Date(2024, 11, 19, 10, 0, 0, 0, time.UTC)
		now = func() time.Time { return fixed }
		DeferCleanup(func() { now = time.Now })
	})

	It("should keep scopes independent", func() {
		sut.Add(ScopeAuthoritative, KindAnswer, "answer %s", "10.0.1.20")
		sut.Add(ScopeResolver, KindAttack, "forged %d", 1)

		Expect(sut.Entries(ScopeAuthoritative)).Should(HaveLen(1))
		Expect(sut.Entries(ScopeResolver)).Should(ConsistOf(
			HaveField("Message", "forged 1")))
	})

	It("should drop the oldest entries past capacity", func() {
		for i := 0; i < 5; i++ {
			sut.Add(ScopeResolver, KindQuery, "q%d", i)
		}

		entries := sut.Entries(ScopeResolver)
		Expect(entries).Should(HaveLen(3))
		Expect(entries[0].Message).Should(Equal("q2"))
		Expect(entries[2].Message).Should(Equal("q4"))
	})

	It("should filter by kind", func() {
		sut.Add(ScopeResolver, KindQuery, "query")
		sut.Add(ScopeResolver, KindValidation, "validation")
		sut.Add(ScopeResolver, KindAttack, "attack")

		Expect(sut.Entries(ScopeResolver, KindValidation, KindAttack)).Should(HaveLen(2))
		Expect(sut.Entries(ScopeResolver, KindSigning)).Should(BeEmpty())
	})

	It("should reset all scopes", func() {
		sut.Add(ScopeResolver, KindQuery, "query")
		sut.Add(ScopeAuthoritative, KindSigning, "signed")

		sut.Reset()

		Expect(sut.Entries(ScopeResolver)).Should(BeEmpty())
		Expect(sut.Entries(ScopeAuthoritative)).Should(BeEmpty())
	})

	It("should return copies", func() {
		sut.Add(ScopeResolver, KindQuery, "query")

		entries := sut.Entries(ScopeResolver)
		entries[0].Message = "changed"

		Expect(sut.Entries(ScopeResolver)[0].Message).Should(Equal("query"))
	})

	It("should accept concurrent writers", func() {
		sut = New(1000)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				for j := 0; j < 10; j++ {
					sut.Add(ScopeResolver, KindAttack, "%d-%d", i, j)
				}
			}(i)
		}

		wg.Wait()

		Expect(sut.Entries(ScopeResolver)).Should(HaveLen(200))
	})

	Describe("Render", func() {
		It("should prefix timestamps", func() {
			sut.Add(ScopeAuthoritative, KindSigning, "zone signed")

			Expect(Render(sut.Entries(ScopeAuthoritative), "No logs yet")).
				Should(Equal("[2024-11-19 10:00:00.000] zone signed"))
		})

		It("should return the placeholder without entries", func() {
			Expect(Render(nil, "No DNSSEC logs yet")).Should(Equal("No DNSSEC logs yet"))
		})
	})
})
