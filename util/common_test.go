package util

import (
	"errors"
	"net"

	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Common function tests", func() {
	Describe("Print DNS answer", func() {
		When("different types of DNS answers", func() {
			rr := make([]dns.RR, 0)
			rr = append(rr, &dns.A{A: net.ParseIP("10.0.1.20")})
			rr = append(rr, &dns.NS{Ns: "ns1.example.com."})
			rr = append(rr, &dns.RRSIG{TypeCovered: dns.TypeA, KeyTag: 4711})
			rr = append(rr, &dns.CNAME{Target: "cname"})
			It("should print the answers", func() {
				answerToString := AnswerToString(rr)
				Expect(answerToString).Should(Equal("A (10.0.1.20), NS (ns1.example.com.), " +
					"RRSIG (A keytag=4711), \t0\tCLASS0\tNone\tcname"))
			})
		})
	})

	Describe("Print DNS question", func() {
		It("should print type and name", func() {
			msg := NewMsgWithQuestion("www.example.com", dns.TypeA)

			Expect(QuestionToString(msg.Question)).Should(Equal("A (www.example.com.)"))
		})
	})

	Describe("FirstA", func() {
		When("message contains an A record", func() {
			It("should return its address", func() {
				msg, err := NewMsgWithAnswer("www.example.com. 300 IN A 10.0.100.100")
				Expect(err).Should(Succeed())

				Expect(FirstA(msg).String()).Should(Equal("10.0.100.100"))
			})
		})

		When("message is nil or empty", func() {
			It("should return nil", func() {
				Expect(FirstA(nil)).Should(BeNil())
				Expect(FirstA(new(dns.Msg))).Should(BeNil())
			})
		})
	})

	Describe("Logging functions", func() {
		When("LogOnError is called with error", func() {
			It("should log", func() {
				logger, hook := log.NewMockEntry()

				LogOnErrorWithEntry(logger, "message ", errors.New("boom"))

				Expect(hook.Messages).Should(ContainElement(ContainSubstring("message boom")))
			})
		})

		When("LogOnError is called without error", func() {
			It("should not log", func() {
				logger, hook := log.NewMockEntry()

				LogOnErrorWithEntry(logger, "message ", nil)

				Expect(hook.Messages).Should(BeEmpty())
			})
		})
	})
})
