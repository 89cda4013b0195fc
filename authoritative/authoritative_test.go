package authoritative

import (
	"context"
	"time"

	"github.com/creasty/defaults"
	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/dnssec"
	. "github.com/poisonlab/poisonlab/helpertest"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/resolver"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/zone"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var (
		sut    *Server
		cfg    config.Authoritative
		store  *zone.Store
		col    *collector.Collector
		engine *dnssec.Engine
		res    *resolver.Resolver
	)

	BeforeEach(func() {
		cfg = config.Authoritative{}
		Expect(defaults.Set(&cfg)).Should(Succeed())

		cfg.MinDelay = config.Duration(time.Millisecond)
		cfg.MaxDelay = config.Duration(5 * time.Millisecond)
	})

	JustBeforeEach(func() {
		var (
			lab       config.Lab
			resCfg    config.Resolver
			dnssecCfg config.DNSSEC
			err       error
		)

		Expect(defaults.Set(&lab)).Should(Succeed())
		Expect(defaults.Set(&resCfg)).Should(Succeed())
		Expect(defaults.Set(&dnssecCfg)).Should(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)

		store = zone.NewStore(lab)
		col = collector.New(100)
		engine = dnssec.NewEngine(dnssecCfg, store, col)
		res = resolver.NewResolver(ctx, resCfg, lab, engine.State(), engine.NewValidator(), col)
		DeferCleanup(res.Reset)

		sut, err = New(cfg, store, col)
		Expect(err).Should(Succeed())
	})

	Describe("Answer", func() {
		It("should answer with the true address and no signature for an unsigned zone", func() {
			msg := sut.Answer("www.example.com.", dns.TypeA, 42)

			Expect(msg.Id).Should(BeNumerically("==", 42))
			Expect(msg.Authoritative).Should(BeTrue())
			Expect(util.FirstA(msg).String()).Should(Equal("10.0.1.20"))
			Expect(msg.Answer).Should(HaveLen(1))
			Expect(msg).Should(BeDNSRecord("www.example.com.", dns.TypeA, "10.0.1.20"))
			Expect(msg).Should(HaveTTL(BeNumerically("==", 300)))
		})

		It("should attach the RRSIG for a signed zone", func() {
			_, err := engine.Setup()
			Expect(err).Should(Succeed())

			msg := sut.Answer("www.example.com.", dns.TypeA, 1)
			Expect(msg.Answer).Should(HaveLen(2))
			Expect(msg.Answer[1]).Should(BeAssignableToTypeOf(&dns.RRSIG{}))
		})

		It("should return NXDOMAIN for unknown names", func() {
			msg := sut.Answer("mail.example.com.", dns.TypeA, 1)

			Expect(msg).Should(HaveReturnCode(dns.RcodeNameError))
			Expect(msg.Ns).Should(HaveLen(1))
		})
	})

	Describe("Respond", func() {
		It("should deliver the answer after the delay and log it", func() {
			q, err := res.Open("www.example.com.", dns.TypeA)
			Expect(err).Should(Succeed())

			start := time.Now()
			outcome, err := sut.Respond(context.Background(), q, res.Deliver)
			Expect(err).Should(Succeed())
			Expect(outcome).Should(Equal(model.OutcomeAccepted))
			Expect(time.Since(start)).Should(BeNumerically(">=", time.Millisecond))

			commit, err := q.Result()
			Expect(err).Should(Succeed())
			Expect(commit.Poisoned).Should(BeFalse())
			Expect(commit.Source).Should(Equal(model.CandidateSourceAuthoritative))

			Expect(collector.Render(col.Entries(collector.ScopeAuthoritative), "")).
				Should(ContainSubstring("answered www.example.com. A"))
		})

		It("should stop when the context is done", func() {
			cfg.MinDelay = config.Duration(time.Hour)
			cfg.MaxDelay = config.Duration(time.Hour)

			var err error
			sut, err = New(cfg, store, col)
			Expect(err).Should(Succeed())

			q, err := res.Open("www.example.com.", dns.TypeA)
			Expect(err).Should(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err = sut.Respond(ctx, q, res.Deliver)
			Expect(err).Should(MatchError(context.Canceled))
		})

		When("every answer is lost", func() {
			BeforeEach(func() {
				cfg.LossPercent = 100
			})

			It("should not deliver", func() {
				q, err := res.Open("www.example.com.", dns.TypeA)
				Expect(err).Should(Succeed())

				_, err = sut.Respond(context.Background(), q, res.Deliver)
				Expect(err).Should(HaveOccurred())
				Expect(q.Resolved()).Should(BeFalse())
			})
		})
	})

	Describe("Ask", func() {
		It("should resolve through the resolver", func() {
			res.SetUpstream(sut)

			resolution, err := res.Resolve(context.Background(), "www.example.com.")
			Expect(err).Should(Succeed())
			Expect(resolution.IP.String()).Should(Equal("10.0.1.20"))
		})
	})
})
