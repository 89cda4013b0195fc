package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"

	"github.com/poisonlab/poisonlab/log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	suiteBeforeEach()

	writeConfig := func(content string) string {
		path := filepath.Join(GinkgoT().TempDir(), "config.yml")
		Expect(os.WriteFile(path, []byte(content), 0o600)).Should(Succeed())

		return path
	}

	Describe("NewDefaultConfig", func() {
		It("should contain the lab defaults", func() {
			cfg, err := NewDefaultConfig()
			Expect(err).Should(Succeed())

			Expect(cfg.Lab.Victim()).Should(Equal("www.example.com."))
			Expect(cfg.Lab.ZoneName()).Should(Equal("example.com."))
			Expect(cfg.Lab.Legit().String()).Should(Equal("10.0.1.20"))
			Expect(cfg.Lab.Attacker().String()).Should(Equal("10.0.100.100"))
			Expect(cfg.Lab.Nameserver().String()).Should(Equal("10.0.1.10"))
			Expect(cfg.Lab.RecordTTL).Should(BeNumerically("==", 300))
			Expect(cfg.Resolver.QueryTimeout.ToDuration()).Should(Equal(2 * time.Second))
			Expect(cfg.Website.RealPort).Should(BeNumerically("==", 8080))
			Expect(cfg.Website.FakePort).Should(BeNumerically("==", 8081))
			Expect(cfg.AttemptLog.Type).Should(Equal(AttemptLogTypeNone))
			Expect(cfg.Log.Level).Should(Equal(log.LevelInfo))
			Expect(cfg.Validate()).Should(Succeed())
		})
	})

	Describe("LoadConfig", func() {
		When("file does not exist", func() {
			It("should return defaults if file is optional", func() {
				cfg, err := LoadConfig(filepath.Join(GinkgoT().TempDir(), "missing.yml"), false)
				Expect(err).Should(Succeed())
				Expect(cfg.Ports.HTTPAddrs()).Should(Equal([]string{"5000"}))
				Expect(cfg.Ports.DNSAddrs()).Should(Equal([]string{"5353"}))
			})

			It("should fail if file is mandatory", func() {
				_, err := LoadConfig(filepath.Join(GinkgoT().TempDir(), "missing.yml"), true)
				Expect(err).Should(MatchError(ContainSubstring("can't read config file")))
			})
		})

		When("file is valid", func() {
			It("should merge values with defaults", func() {
				path := writeConfig(`
lab:
  victimDomain: shop.example.org.
  attackerIP: 192.0.2.66
resolver:
  tokenBits: 8
  queryTimeout: 500ms
attemptLog:
  type: csv
  target: /tmp/attempts
log:
  level: debug
`)
				cfg, err := LoadConfig(path, true)
				Expect(err).Should(Succeed())

				Expect(cfg.Lab.ZoneName()).Should(Equal("example.org."))
				Expect(cfg.Lab.AttackerIP).Should(Equal("192.0.2.66"))
				Expect(cfg.Lab.LegitIP).Should(Equal("10.0.1.20"))
				Expect(cfg.Resolver.TokenSpace()).Should(BeNumerically("==", 256))
				Expect(cfg.Resolver.QueryTimeout.ToDuration()).Should(Equal(500 * time.Millisecond))
				Expect(cfg.AttemptLog.Type).Should(Equal(AttemptLogTypeCsv))
				Expect(cfg.Log.Level).Should(Equal(log.LevelDebug))
			})
		})

		When("file contains unknown keys", func() {
			It("should fail", func() {
				path := writeConfig("unknownKey: 1\n")

				_, err := LoadConfig(path, true)
				Expect(err).Should(MatchError(ContainSubstring("wrong file structure")))
			})
		})

		When("values are invalid", func() {
			It("should report all problems", func() {
				path := writeConfig(`
lab:
  legitIP: not-an-ip
resolver:
  minPort: 2000
  maxPort: 1000
authoritative:
  minDelay: 1s
  maxDelay: 10ms
`)
				_, err := LoadConfig(path, true)
				Expect(err).Should(HaveOccurred())
				Expect(err.Error()).Should(SatisfyAll(
					ContainSubstring("LegitIP"),
					ContainSubstring("resolver.minPort"),
					ContainSubstring("authoritative.minDelay"),
				))
			})
		})

		When("the query timeout can't be met by the authoritative server", func() {
			It("should fail for a zero timeout", func() {
				path := writeConfig(`
resolver:
  queryTimeout: 0s
`)
				_, err := LoadConfig(path, true)
				Expect(err).Should(MatchError(ContainSubstring("resolver.queryTimeout must be positive")))
			})

			It("should fail if the maximum delay reaches the timeout", func() {
				path := writeConfig(`
resolver:
  queryTimeout: 100ms
authoritative:
  maxDelay: 100ms
`)
				_, err := LoadConfig(path, true)
				Expect(err).Should(MatchError(ContainSubstring("must be less than resolver.queryTimeout")))
			})
		})

		When("victim domain is outside of the zone", func() {
			It("should fail", func() {
				path := writeConfig(`
lab:
  zone: example.net.
`)
				_, err := LoadConfig(path, true)
				Expect(err).Should(MatchError(ContainSubstring("is not inside zone")))
			})
		})

		When("attempt log needs a target", func() {
			It("should fail without target", func() {
				path := writeConfig(`
attemptLog:
  type: sqlite
`)
				_, err := LoadConfig(path, true)
				Expect(err).Should(MatchError(ContainSubstring("attemptLog.target is required")))
			})
		})
	})

	Describe("LogConfig", func() {
		It("should log enabled sections and mark disabled ones", func() {
			cfg, err := NewDefaultConfig()
			Expect(err).Should(Succeed())

			cfg.LogConfig(logger)

			Expect(hook.Messages).Should(SatisfyAll(
				ContainElement("lab:"),
				ContainElement("victimDomain = www.example.com."),
				ContainElement("redis: disabled"),
				ContainElement("prometheus: disabled"),
				ContainElement("attemptLog: disabled"),
			))
		})
	})

	Describe("DNSSEC", func() {
		var c DNSSEC

		BeforeEach(func() {
			Expect(defaults.Set(&c)).Should(Succeed())
		})

		It("should derive key sizes from the algorithm", func() {
			Expect(c.KeyBits(true)).Should(Equal(256))

			c.Algorithm = "RSASHA256"
			Expect(c.KeyBits(true)).Should(Equal(2048))
			Expect(c.KeyBits(false)).Should(Equal(1024))
		})

		It("should prefer explicit key sizes", func() {
			c.Algorithm = "RSASHA256"
			c.ZSKBits = 2048

			Expect(c.KeyBits(false)).Should(Equal(2048))
		})
	})

	Describe("Resolver", func() {
		It("should compute the port space", func() {
			c := Resolver{MinPort: 33333, MaxPort: 33334}
			Expect(c.PortSpace()).Should(BeNumerically("==", 2))

			c.MaxPort = 1
			Expect(c.PortSpace()).Should(BeZero())
		})
	})

	Describe("Ports", func() {
		It("should split comma separated addresses", func() {
			p := Ports{DNS: "", HTTP: "127.0.0.1:5000, :5001,"}

			Expect(p.DNSAddrs()).Should(BeEmpty())
			Expect(p.HTTPAddrs()).Should(Equal([]string{"127.0.0.1:5000", ":5001"}))
		})
	})

	Describe("Website", func() {
		It("should build site urls", func() {
			c := Website{Host: "127.0.0.1"}
			Expect(c.URL(8081)).Should(Equal("http://127.0.0.1:8081/"))
		})
	})
})
