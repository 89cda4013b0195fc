package spoofer

import (
	"context"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/dnssec"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/resolver"
	"github.com/poisonlab/poisonlab/stats"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/zone"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type attemptList struct {
	sync.Mutex
	attempts []model.AttackAttempt
}

func (l *attemptList) RecordAttempt(a model.AttackAttempt) {
	l.Lock()
	defer l.Unlock()

	l.attempts = append(l.attempts, a)
}

var _ = Describe("Spoofer", func() {
	var (
		sut       *Spoofer
		cfg       config.Attack
		resCfg    config.Resolver
		lab       config.Lab
		store     *zone.Store
		engine    *dnssec.Engine
		res       *resolver.Resolver
		col       *collector.Collector
		metrics   *stats.Metrics
		collected *attemptList
	)

	BeforeEach(func() {
		cfg, resCfg, lab = config.Attack{}, config.Resolver{}, config.Lab{}

		Expect(defaults.Set(&cfg)).Should(Succeed())
		Expect(defaults.Set(&resCfg)).Should(Succeed())
		Expect(defaults.Set(&lab)).Should(Succeed())

		cfg.Spread = config.Duration(5 * time.Millisecond)
	})

	JustBeforeEach(func() {
		var dnssecCfg config.DNSSEC

		Expect(defaults.Set(&dnssecCfg)).Should(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)

		store = zone.NewStore(lab)
		col = collector.New(1000)
		engine = dnssec.NewEngine(dnssecCfg, store, col)
		res = resolver.NewResolver(ctx, resCfg, lab, engine.State(), engine.NewValidator(), col)
		DeferCleanup(res.Reset)

		metrics = stats.NewMetrics()
		collected = &attemptList{}

		sut = New(cfg, resCfg, lab, col, metrics, collected).
			WithSignatures(func(name string, qtype uint16) []*dns.RRSIG {
				set, _ := store.Lookup(name, qtype)

				return set.RRSIGs
			})
	})

	Describe("Guesses", func() {
		It("should return distinct guesses inside the space", func() {
			guesses := sut.Guesses(100)

			Expect(guesses).Should(HaveLen(100))

			seen := map[Guess]bool{}
			for _, g := range guesses {
				Expect(seen).ShouldNot(HaveKey(g))
				seen[g] = true

				Expect(uint32(g.Token)).Should(BeNumerically("<", resCfg.TokenSpace()))
				Expect(g.Port).Should(BeNumerically(">=", resCfg.MinPort))
				Expect(g.Port).Should(BeNumerically("<=", resCfg.MaxPort))
			}
		})

		It("should cover the whole space when asked for more than it holds", func() {
			space := int(resCfg.TokenSpace() * resCfg.PortSpace())
			guesses := sut.Guesses(10000)

			Expect(guesses).Should(HaveLen(space))

			seen := map[Guess]bool{}
			for _, g := range guesses {
				seen[g] = true
			}

			Expect(seen).Should(HaveLen(space))
		})
	})

	Describe("Forge", func() {
		It("should point the victim domain to the attacker", func() {
			msg := sut.Forge("www.example.com.", dns.TypeA, 7)

			Expect(msg.Id).Should(BeNumerically("==", 7))
			Expect(msg.Response).Should(BeTrue())
			Expect(util.FirstA(msg).String()).Should(Equal("10.0.100.100"))
			Expect(msg.Answer).Should(HaveLen(1))
		})
	})

	Describe("Attack", func() {
		When("the whole space is covered", func() {
			BeforeEach(func() {
				cfg.GuessesPerAttempt = 128
			})

			It("should poison the cache when validation is off", func() {
				q, err := res.Open("www.example.com.", dns.TypeA)
				Expect(err).Should(Succeed())

				report := sut.Attack(context.Background(), q, res.Deliver)

				Expect(report.Attempts).Should(HaveLen(128))
				Expect(report.Won()).Should(BeTrue())
				Expect(report.Count(model.OutcomeAccepted)).Should(Equal(1))

				commit, err := q.Result()
				Expect(err).Should(Succeed())
				Expect(commit.Poisoned).Should(BeTrue())

				snapshot := metrics.Snapshot()
				Expect(snapshot.PoisonAttempts).Should(BeNumerically("==", 128))
				Expect(snapshot.SuccessfulPoisons).Should(BeNumerically("==", 1))
				Expect(snapshot.BlockedAttempts).Should(BeZero())

				Expect(collected.attempts).Should(HaveLen(128))

				Expect(collector.Render(col.Entries(collector.ScopeResolver, collector.KindAttack), "")).
					Should(ContainSubstring("sent 128 forged responses for www.example.com."))
			})

			When("validation is on", func() {
				BeforeEach(func() {
					cfg.ReplaySignatures = true
				})

				JustBeforeEach(func() {
					_, err := engine.Setup()
					Expect(err).Should(Succeed())

					_, err = engine.EnableValidation()
					Expect(err).Should(Succeed())
				})

				It("should be blocked even with replayed signatures", func() {
					q, err := res.Open("www.example.com.", dns.TypeA)
					Expect(err).Should(Succeed())

					report := sut.Attack(context.Background(), q, res.Deliver)

					Expect(report.Won()).Should(BeFalse())
					Expect(report.Count(model.OutcomeRejectedDnssec)).Should(Equal(1))
					Expect(q.Resolved()).Should(BeFalse())

					Expect(metrics.Snapshot().BlockedAttempts).Should(BeNumerically("==", 1))
				})
			})
		})

		It("should not send after the context is done", func() {
			q, err := res.Open("www.example.com.", dns.TypeA)
			Expect(err).Should(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			cfg.Spread = config.Duration(time.Hour)
			sut.cfg = cfg

			report := sut.Attack(ctx, q, res.Deliver)

			Expect(len(report.Attempts)).Should(BeNumerically("<=", 1))
		})
	})
})
