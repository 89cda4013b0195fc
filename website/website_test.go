package website

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/creasty/defaults"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/web"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fetcher", func() {
	var (
		cfg config.Website
		lab config.Lab
		sut *Fetcher
	)

	serve := func(h http.Handler) uint16 {
		srv := httptest.NewServer(h)
		DeferCleanup(srv.Close)

		u, err := url.Parse(srv.URL)
		Expect(err).Should(Succeed())

		port, err := strconv.Atoi(u.Port())
		Expect(err).Should(Succeed())

		return uint16(port)
	}

	BeforeEach(func() {
		cfg, lab = config.Website{}, config.Lab{}

		Expect(defaults.Set(&cfg)).Should(Succeed())
		Expect(defaults.Set(&lab)).Should(Succeed())

		cfg.FetchCooldown = config.Duration(time.Millisecond)

		realSite, err := web.RealSite()
		Expect(err).Should(Succeed())

		fakeSite, err := web.FakeSite()
		Expect(err).Should(Succeed())

		cfg.RealPort = serve(SiteRouter(realSite))
		cfg.FakePort = serve(SiteRouter(fakeSite))
	})

	JustBeforeEach(func() {
		sut = NewFetcher(cfg, lab)
	})

	It("should show the real site for the legitimate address", func() {
		page := sut.Fetch(context.Background(), net.ParseIP("10.0.1.20"))

		Expect(page.Success).Should(BeTrue())
		Expect(page.Poisoned).Should(BeFalse())
		Expect(page.Port).Should(Equal(cfg.RealPort))
		Expect(page.HTML).Should(ContainSubstring("REAL SITE"))
	})

	It("should show the fake site for the attacker address", func() {
		page := sut.Fetch(context.Background(), net.ParseIP("10.0.100.100"))

		Expect(page.Success).Should(BeTrue())
		Expect(page.Poisoned).Should(BeTrue())
		Expect(page.Port).Should(Equal(cfg.FakePort))
		Expect(page.HTML).Should(ContainSubstring("FAKE SITE"))
	})

	It("should reject unknown addresses", func() {
		page := sut.Fetch(context.Background(), net.ParseIP("192.0.2.1"))

		Expect(page.Success).Should(BeFalse())
		Expect(page.Error).Should(Equal("unknown IP"))
		Expect(page.IP).Should(Equal("192.0.2.1"))
	})

	When("the site fails temporarily", func() {
		var calls atomic.Int32

		BeforeEach(func() {
			calls.Store(0)

			cfg.RealPort = serve(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(http.StatusServiceUnavailable)

					return
				}

				_, _ = w.Write([]byte("<html>ok</html>"))
			}))
		})

		It("should retry", func() {
			page := sut.Fetch(context.Background(), net.ParseIP("10.0.1.20"))

			Expect(page.Success).Should(BeTrue())
			Expect(page.HTML).Should(Equal("<html>ok</html>"))
			Expect(calls.Load()).Should(BeNumerically("==", 2))
		})
	})

	When("the site is down", func() {
		BeforeEach(func() {
			cfg.FetchAttempts = 2
			cfg.FakePort = serve(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
		})

		It("should report the failure with address and poisoned flag", func() {
			page := sut.Fetch(context.Background(), net.ParseIP("10.0.100.100"))

			Expect(page.Success).Should(BeFalse())
			Expect(page.Poisoned).Should(BeTrue())
			Expect(page.Error).Should(ContainSubstring("got status code 500"))
		})
	})
})
