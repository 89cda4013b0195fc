package attack

import (
	"context"
	"time"

	"github.com/creasty/defaults"
	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/authoritative"
	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/dnssec"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/resolver"
	"github.com/poisonlab/poisonlab/spoofer"
	"github.com/poisonlab/poisonlab/stats"
	"github.com/poisonlab/poisonlab/zone"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Controller", func() {
	var (
		sut     *Controller
		cfg     config.Attack
		authCfg config.Authoritative
		resCfg  config.Resolver
		lab     config.Lab
		engine  *dnssec.Engine
		res     *resolver.Resolver
		col     *collector.Collector
		metrics *stats.Metrics
	)

	BeforeEach(func() {
		cfg, authCfg, resCfg, lab = config.Attack{}, config.Authoritative{}, config.Resolver{}, config.Lab{}

		Expect(defaults.Set(&cfg)).Should(Succeed())
		Expect(defaults.Set(&authCfg)).Should(Succeed())
		Expect(defaults.Set(&resCfg)).Should(Succeed())
		Expect(defaults.Set(&lab)).Should(Succeed())

		// forged responses cover the whole space before the authoritative answer arrives
		cfg.GuessesPerAttempt = 128
		cfg.Spread = config.Duration(5 * time.Millisecond)
		cfg.Pacing = config.Duration(10 * time.Millisecond)
		authCfg.MinDelay = config.Duration(100 * time.Millisecond)
		authCfg.MaxDelay = config.Duration(100 * time.Millisecond)
	})

	JustBeforeEach(func() {
		var dnssecCfg config.DNSSEC

		Expect(defaults.Set(&dnssecCfg)).Should(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)

		store := zone.NewStore(lab)
		col = collector.New(1000)
		engine = dnssec.NewEngine(dnssecCfg, store, col)
		res = resolver.NewResolver(ctx, resCfg, lab, engine.State(), engine.NewValidator(), col)
		DeferCleanup(res.Reset)

		auth, err := authoritative.New(authCfg, store, col)
		Expect(err).Should(Succeed())

		metrics = stats.NewMetrics()

		sp := spoofer.New(cfg, resCfg, lab, col, metrics).
			WithSignatures(func(name string, qtype uint16) []*dns.RRSIG {
				set, _ := store.Lookup(name, qtype)

				return set.RRSIGs
			})

		sut = NewController(cfg, lab, res, auth, sp, col)
		DeferCleanup(sut.Reset)
	})

	Describe("lifecycle", func() {
		It("should be stopped initially", func() {
			Expect(sut.State()).Should(Equal(model.AttackStateStopped))
			Expect(sut.Log()).Should(Equal("No logs yet"))
		})

		It("should ignore a second start", func() {
			sut.Start()
			sut.Start()

			Expect(sut.State()).Should(Equal(model.AttackStateRunning))

			Expect(sut.Stop()).Should(Succeed())
			Expect(sut.State()).Should(Equal(model.AttackStateStopped))
		})

		It("should fail to stop a stopped attack", func() {
			err := sut.Stop()

			Expect(err).Should(MatchError(model.ErrInvalidState))
		})

		It("should run rounds in the background", func() {
			sut.Start()

			Eventually(func() bool {
				_, ok := sut.LastRound()

				return ok
			}, "2s").Should(BeTrue())

			Expect(sut.Stop()).Should(Succeed())
		})

		It("should forget everything on reset", func() {
			sut.Start()

			Eventually(func() bool {
				_, ok := sut.LastRound()

				return ok
			}, "2s").Should(BeTrue())

			sut.Reset()

			Expect(sut.State()).Should(Equal(model.AttackStateStopped))

			_, ok := sut.LastRound()
			Expect(ok).Should(BeFalse())
			Expect(sut.Log()).Should(Equal("No logs yet"))
		})
	})

	Describe("RunOnce", func() {
		When("validation is off", func() {
			It("should poison the cache", func() {
				round, err := sut.RunOnce(context.Background())
				Expect(err).Should(Succeed())

				Expect(round.Number).Should(BeNumerically("==", 1))
				Expect(round.Outcome).Should(Equal(RoundOutcomeSuccess))
				Expect(round.BlockedByDNSSEC).Should(BeFalse())
				Expect(round.Sent).Should(Equal(128))
				Expect(round.Outcomes[model.OutcomeAccepted]).Should(Equal(1))
				Expect(round.Commit.Poisoned).Should(BeTrue())

				commit, _ := res.Cached("www.example.com.")
				Expect(commit).ShouldNot(BeNil())
				Expect(commit.Poisoned).Should(BeTrue())

				Expect(sut.Log()).Should(And(
					ContainSubstring("DNS CACHE POISONING ATTACK"),
					ContainSubstring("ATTACK SUCCESSFUL!"),
					ContainSubstring("sent 128 forged responses"),
				))

				Expect(collector.Render(col.Entries(collector.ScopeResolver, collector.KindQuery), "")).
					Should(ContainSubstring("Attack attempt #1: SUCCESS (cache poisoned)"))
			})

			It("should count rounds", func() {
				_, err := sut.RunOnce(context.Background())
				Expect(err).Should(Succeed())

				round, err := sut.RunOnce(context.Background())
				Expect(err).Should(Succeed())

				Expect(round.Number).Should(BeNumerically("==", 2))
				Expect(metrics.Snapshot().SuccessfulPoisons).Should(BeNumerically("==", 2))
			})
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

			It("should be blocked by DNSSEC", func() {
				round, err := sut.RunOnce(context.Background())
				Expect(err).Should(Succeed())

				Expect(round.Outcome).Should(Equal(RoundOutcomeBlocked))
				Expect(round.BlockedByDNSSEC).Should(BeTrue())
				Expect(round.Outcomes[model.OutcomeRejectedDnssec]).Should(Equal(1))
				Expect(round.Commit.Poisoned).Should(BeFalse())
				Expect(round.Commit.Authenticated).Should(BeTrue())

				Expect(sut.Log()).Should(ContainSubstring("ATTACK BLOCKED BY DNSSEC!"))
			})
		})

		It("should give up if the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := sut.RunOnce(ctx)

			Expect(err).Should(MatchError(context.Canceled))

			_, ok := sut.LastRound()
			Expect(ok).Should(BeFalse())

			_, outstanding := res.Outstanding("www.example.com.", dns.TypeA)
			Expect(outstanding).Should(BeFalse())
		})
	})
})
