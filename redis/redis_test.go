package redis

import (
	"context"
	"net"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/creasty/defaults"
	"github.com/go-redis/redis/v8"
	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/model"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Redis client", func() {
	var (
		redisServer *miniredis.Miniredis
		redisClient *Client
		redisConfig *config.Redis
		ctx         context.Context
		err         error
	)

	commit := func(domain string) *model.Commit {
		return &model.Commit{
			Key:         model.NewQueryKey(domain, dns.TypeA),
			QueryID:     "q1",
			IP:          net.ParseIP("10.0.100.100"),
			TTL:         300,
			Poisoned:    true,
			Source:      model.CandidateSourceSpoofer,
			CommittedAt: time.Now(),
		}
	}

	BeforeEach(func() {
		var cancel context.CancelFunc

		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)

		redisServer, err = miniredis.Run()
		Expect(err).Should(Succeed())
		DeferCleanup(redisServer.Close)

		var rcfg config.Redis
		Expect(defaults.Set(&rcfg)).Should(Succeed())

		rcfg.Address = redisServer.Addr()
		redisConfig = &rcfg

		redisClient, err = New(ctx, redisConfig)
		Expect(err).Should(Succeed())
		Expect(redisClient).ShouldNot(BeNil())
	})

	When("created", func() {
		It("with no address", func() {
			var rcfg config.Redis
			Expect(defaults.Set(&rcfg)).Should(Succeed())

			rClient, err := New(ctx, &rcfg)

			Expect(err).Should(Succeed())
			Expect(rClient).Should(BeNil())
		})

		It("with invalid address", func() {
			var rcfg config.Redis
			Expect(defaults.Set(&rcfg)).Should(Succeed())

			rcfg.Address = "127.0.0.1:0"
			rcfg.ConnectionAttempts = 1
			rcfg.ConnectionCooldown = config.Duration(time.Millisecond)

			_, err = New(ctx, &rcfg)

			Expect(err).Should(HaveOccurred())
		})

		It("with invalid password", func() {
			redisServer.RequireAuth("secret")

			var rcfg config.Redis
			Expect(defaults.Set(&rcfg)).Should(Succeed())

			rcfg.Address = redisServer.Addr()
			rcfg.Password = "wrong"
			rcfg.ConnectionAttempts = 1
			rcfg.ConnectionCooldown = config.Duration(time.Millisecond)

			_, err = New(ctx, &rcfg)

			Expect(err).Should(HaveOccurred())
		})
	})

	When("a commit is published", func() {
		It("should be stored with its TTL", func() {
			Expect(redisClient.PublishCommit(ctx, commit("www.example.com."))).Should(Succeed())

			Expect(redisServer.Keys()).Should(ConsistOf("poisonlab:cache:www.example.com."))
			Expect(redisServer.TTL("poisonlab:cache:www.example.com.")).Should(Equal(300 * time.Second))

			stored, err := redisClient.Commit(ctx, "WWW.example.com")
			Expect(err).Should(Succeed())
			Expect(stored.Poisoned).Should(BeTrue())
			Expect(stored.IP.String()).Should(Equal("10.0.100.100"))
		})

		It("should announce the commit on the cache channel", func() {
			sub := redisClient.client.Subscribe(ctx, CacheChannelName)
			DeferCleanup(sub.Close)

			_, err := sub.Receive(ctx)
			Expect(err).Should(Succeed())

			Expect(redisClient.PublishCommit(ctx, commit("www.example.com."))).Should(Succeed())

			var received *redis.Message
			Eventually(sub.Channel()).Should(Receive(&received))

			var msg CacheMessage
			Expect(msg.UnmarshalBinary([]byte(received.Payload))).Should(Succeed())
			Expect(msg.Key).Should(Equal("www.example.com."))
			Expect(msg.FromSelf()).Should(BeTrue())
			Expect(msg.Commit.Poisoned).Should(BeTrue())
		})

		It("should be removed by a flush", func() {
			Expect(redisClient.PublishCommit(ctx, commit("www.example.com."))).Should(Succeed())
			Expect(redisClient.PublishCommit(ctx, commit("example.com."))).Should(Succeed())

			Expect(redisClient.Flush(ctx, "example.com.")).Should(Succeed())
			Expect(redisServer.Keys()).Should(HaveLen(1))

			Expect(redisClient.Flush(ctx, "")).Should(Succeed())
			Expect(redisServer.Keys()).Should(BeEmpty())
		})
	})

	When("metrics are stored", func() {
		It("should be readable", func() {
			snapshot := model.MetricsSnapshot{PoisonAttempts: 4, SuccessfulPoisons: 1, SuccessRate: 25}

			Expect(redisClient.StoreMetrics(ctx, snapshot)).Should(Succeed())
			Expect(redisClient.Metrics(ctx)).Should(Equal(snapshot))
		})
	})

	When("subscribed to the event bus", func() {
		It("should mirror metrics changes", func() {
			Expect(redisClient.Subscribe(ctx)).Should(Succeed())

			evt.Bus().Publish(evt.MetricsChanged, model.MetricsSnapshot{PoisonAttempts: 7})

			Eventually(func() uint64 {
				snapshot, _ := redisClient.Metrics(ctx)

				return snapshot.PoisonAttempts
			}).Should(BeNumerically("==", 7))
		})
	})
})
