package dnssec

import (
	"net"
	"time"

	"github.com/creasty/defaults"
	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/zone"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Validator", func() {
	var (
		engine *Engine
		store  *zone.Store
		sut    *Validator
		msg    *dns.Msg
	)

	newAnswer := func(ip string) *dns.Msg {
		m := util.NewMsgWithQuestion("www.example.com.", dns.TypeA)
		m.Response = true
		m.Answer = []dns.RR{&dns.A{
			Hdr: dns.RR_Header{Name: "www.example.com.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
			A:   net.ParseIP(ip).To4(),
		}}

		return m
	}

	signedAnswer := func() *dns.Msg {
		set, ok := store.Lookup("www.example.com.", dns.TypeA)
		Expect(ok).Should(BeTrue())

		m := util.NewMsgWithQuestion("www.example.com.", dns.TypeA)
		m.Response = true
		m.Answer = append(m.Answer, set.RRs...)

		for _, sig := range set.RRSIGs {
			m.Answer = append(m.Answer, sig)
		}

		return m
	}

	BeforeEach(func() {
		var (
			lab config.Lab
			cfg config.DNSSEC
		)

		Expect(defaults.Set(&lab)).Should(Succeed())
		Expect(defaults.Set(&cfg)).Should(Succeed())

		store = zone.NewStore(lab)
		engine = NewEngine(cfg, store, collector.New(10))
		sut = engine.NewValidator()
	})

	When("no trust anchor is configured", func() {
		It("should treat unsigned answers as insecure", func() {
			res, _, err := sut.ValidateResponse(newAnswer("10.0.100.100"), time.Now())

			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ValidationResultInsecure))
		})
	})

	When("zone is signed", func() {
		BeforeEach(func() {
			_, err := engine.Setup()
			Expect(err).Should(Succeed())
		})

		It("should accept the authoritative answer", func() {
			msg = signedAnswer()

			res, trace, err := sut.ValidateResponse(msg, time.Now())

			Expect(err).Should(Succeed())
			Expect(res).Should(Equal(ValidationResultSecure))
			Expect(trace).Should(ContainElement(ContainSubstring("(KSK) trusted")))
			Expect(trace).Should(ContainElement(ContainSubstring("verified with ZSK")))
		})

		It("should reject a forged answer without signature", func() {
			res, _, err := sut.ValidateResponse(newAnswer("10.0.100.100"), time.Now())

			Expect(err).Should(MatchError(ErrMissingSignature))
			Expect(res).Should(Equal(ValidationResultBogus))
		})

		It("should reject a forged answer reusing the legitimate signature", func() {
			msg = signedAnswer()
			msg.Answer[0].(*dns.A).A = net.ParseIP("10.0.100.100").To4()

			res, _, err := sut.ValidateResponse(msg, time.Now())

			Expect(err).Should(MatchError(ErrInvalidSignature))
			Expect(res).Should(Equal(ValidationResultBogus))
		})

		It("should reject a forged answer signed by the attacker's own key", func() {
			attackerKey, err := generateKey("example.com.", false, dns.ECDSAP256SHA256, 256, 300)
			Expect(err).Should(Succeed())

			msg = newAnswer("10.0.100.100")
			sig, err := attackerKey.sign(zone.RRset{
				Name: "www.example.com.", Rrtype: dns.TypeA, RRs: msg.Answer,
			}, "example.com.", time.Hour, time.Now())
			Expect(err).Should(Succeed())
			msg.Answer = append(msg.Answer, sig)

			res, _, err := sut.ValidateResponse(msg, time.Now())

			Expect(err).Should(HaveOccurred())
			Expect(res).Should(Equal(ValidationResultBogus))
		})

		It("should reject signatures outside of their window", func() {
			msg = signedAnswer()

			res, _, err := sut.ValidateResponse(msg, time.Now().Add(365*24*time.Hour))

			Expect(err).Should(MatchError(ErrSignatureWindow))
			Expect(res).Should(Equal(ValidationResultBogus))
		})

		It("should reject answers if the DNSKEY set is gone", func() {
			msg = signedAnswer()
			store.Unsign()

			res, _, err := sut.ValidateResponse(msg, time.Now())

			Expect(err).Should(MatchError(ErrUntrustedKeys))
			Expect(res).Should(Equal(ValidationResultBogus))
		})

		It("should fail without question", func() {
			res, _, err := sut.ValidateResponse(new(dns.Msg), time.Now())

			Expect(err).Should(HaveOccurred())
			Expect(res).Should(Equal(ValidationResultIndeterminate))
		})
	})
})
